package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	claimKeyPrefix = "peer:"
	inboxPrefix    = "inbox:"
	inboxBuffer    = 256
)

// Subscription delivers the frames published to one peer inbox in publish order.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// RedisBroker keeps peer claims as expiring keys and routes frames over pub/sub, so peers attached
// to different relay instances can still reach each other.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{
		client: client,
	}
}

// Claim takes peerID for ttl. It reports false when somebody else holds it.
func (that *RedisBroker) Claim(ctx context.Context, peerID string, ttl time.Duration) (bool, error) {
	ok, err := that.client.SetNX(ctx, claimKeyPrefix+peerID, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim peer %s: %w", peerID, err)
	}

	return ok, nil
}

func (that *RedisBroker) Refresh(ctx context.Context, peerID string, ttl time.Duration) error {
	if err := that.client.Expire(ctx, claimKeyPrefix+peerID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh peer %s: %w", peerID, err)
	}

	return nil
}

func (that *RedisBroker) Release(ctx context.Context, peerID string) error {
	if err := that.client.Del(ctx, claimKeyPrefix+peerID).Err(); err != nil {
		return fmt.Errorf("failed to release peer %s: %w", peerID, err)
	}

	return nil
}

func (that *RedisBroker) IsClaimed(ctx context.Context, peerID string) (bool, error) {
	count, err := that.client.Exists(ctx, claimKeyPrefix+peerID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up peer %s: %w", peerID, err)
	}

	return count > 0, nil
}

// Publish drops the frame when nobody listens on the inbox.
func (that *RedisBroker) Publish(ctx context.Context, peerID string, frame []byte) error {
	if err := that.client.Publish(ctx, inboxPrefix+peerID, frame).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", peerID, err)
	}

	return nil
}

func (that *RedisBroker) Subscribe(ctx context.Context, peerID string) (Subscription, error) {
	pubsub := that.client.Subscribe(ctx, inboxPrefix+peerID)

	// wait for the confirmation so nothing published afterwards is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", peerID, err)
	}

	sub := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan []byte, inboxBuffer),
		done:     make(chan struct{}),
	}
	go sub.forward()

	return sub, nil
}

type redisSubscription struct {
	pubsub   *redis.PubSub
	messages chan []byte
	done     chan struct{}
	once     sync.Once
}

func (that *redisSubscription) forward() {
	defer close(that.messages)

	for msg := range that.pubsub.Channel() {
		select {
		case that.messages <- []byte(msg.Payload):
		case <-that.done:
			return
		}
	}
}

func (that *redisSubscription) Messages() <-chan []byte {
	return that.messages
}

func (that *redisSubscription) Close() error {
	var err error

	that.once.Do(func() {
		close(that.done)
		err = that.pubsub.Close()
	})

	return err
}

type memoryClaim struct {
	expiresAt time.Time
}

// MemoryBroker is the single-instance broker. Claims expire like the redis keys do.
type MemoryBroker struct {
	mu      sync.Mutex
	claims  map[string]memoryClaim
	inboxes map[string]*memorySubscription
	now     func() time.Time
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		claims:  make(map[string]memoryClaim),
		inboxes: make(map[string]*memorySubscription),
		now:     time.Now,
	}
}

func (that *MemoryBroker) Claim(_ context.Context, peerID string, ttl time.Duration) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.liveLocked(peerID) {
		return false, nil
	}

	that.claims[peerID] = memoryClaim{expiresAt: that.now().Add(ttl)}

	return true, nil
}

func (that *MemoryBroker) Refresh(_ context.Context, peerID string, ttl time.Duration) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.claims[peerID]; ok {
		that.claims[peerID] = memoryClaim{expiresAt: that.now().Add(ttl)}
	}

	return nil
}

func (that *MemoryBroker) Release(_ context.Context, peerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.claims, peerID)

	return nil
}

func (that *MemoryBroker) IsClaimed(_ context.Context, peerID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.liveLocked(peerID), nil
}

func (that *MemoryBroker) Publish(ctx context.Context, peerID string, frame []byte) error {
	that.mu.Lock()
	sub, ok := that.inboxes[peerID]
	that.mu.Unlock()

	if !ok {
		return nil
	}

	select {
	case sub.messages <- append([]byte(nil), frame...):
		return nil
	case <-sub.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to publish to %s: %w", peerID, ctx.Err())
	}
}

// Subscribe replaces an earlier subscription of the same inbox.
func (that *MemoryBroker) Subscribe(_ context.Context, peerID string) (Subscription, error) {
	sub := &memorySubscription{
		messages: make(chan []byte, inboxBuffer),
		done:     make(chan struct{}),
	}
	sub.release = func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if that.inboxes[peerID] == sub {
			delete(that.inboxes, peerID)
		}
	}

	that.mu.Lock()
	previous := that.inboxes[peerID]
	that.inboxes[peerID] = sub
	that.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	return sub, nil
}

func (that *MemoryBroker) liveLocked(peerID string) bool {
	claim, ok := that.claims[peerID]
	if !ok {
		return false
	}

	if !that.now().Before(claim.expiresAt) {
		delete(that.claims, peerID)
		return false
	}

	return true
}

// memorySubscription never closes messages; consumers stop on their own context.
type memorySubscription struct {
	messages chan []byte
	done     chan struct{}
	once     sync.Once
	release  func()
}

func (that *memorySubscription) Messages() <-chan []byte {
	return that.messages
}

func (that *memorySubscription) Close() error {
	that.once.Do(func() {
		close(that.done)
		that.release()
	})

	return nil
}
