// Package pipe is an in-memory transport for tests: hosts listen on a channel id, one guest dials
// it, and messages are delivered in send order.
package pipe

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport"
)

const eventBuffer = 64

type Network struct {
	mu    sync.Mutex
	hosts map[string]*Conn
}

func NewNetwork() *Network {
	return &Network{hosts: make(map[string]*Conn)}
}

func (that *Network) Listen(_ context.Context, channelID string) (transport.Conn, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if host, ok := that.hosts[channelID]; ok && !host.closed {
		return nil, apperror.ErrChannelTaken
	}

	conn := that.newConn()
	that.hosts[channelID] = conn

	return conn, nil
}

func (that *Network) Dial(_ context.Context, channelID string) (transport.Conn, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	host, ok := that.hosts[channelID]
	if !ok || host.closed || host.peer != nil {
		return nil, apperror.ErrPeerUnavailable
	}

	guest := that.newConn()
	host.peer, guest.peer = guest, host
	host.events <- transport.Event{Kind: transport.EventOpened}
	guest.events <- transport.Event{Kind: transport.EventOpened}

	return guest, nil
}

func (that *Network) newConn() *Conn {
	return &Conn{network: that, events: make(chan transport.Event, eventBuffer)}
}

type Conn struct {
	network *Network
	peer    *Conn
	events  chan transport.Event
	closed  bool
}

func (that *Conn) Send(data []byte) bool {
	that.network.mu.Lock()
	defer that.network.mu.Unlock()

	if that.closed || that.peer == nil || that.peer.closed {
		return false
	}

	that.peer.events <- transport.Event{Kind: transport.EventData, Data: append([]byte(nil), data...)}

	return true
}

func (that *Conn) Events() <-chan transport.Event {
	return that.events
}

// Close tells the peer the channel closed, then ends this side's event stream.
func (that *Conn) Close() error {
	that.network.mu.Lock()
	defer that.network.mu.Unlock()

	if that.closed {
		return nil
	}

	that.closed = true
	if that.peer != nil && !that.peer.closed {
		that.peer.events <- transport.Event{Kind: transport.EventClosed}
	}
	close(that.events)

	return nil
}

// Inject queues an event on this side as if the transport produced it.
func (that *Conn) Inject(event transport.Event) {
	that.network.mu.Lock()
	defer that.network.mu.Unlock()

	if !that.closed {
		that.events <- event
	}
}
