package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	writeWait   = 10 * time.Second
	sendBuffer  = 256
	releaseWait = 5 * time.Second
)

// client is one socket attached to the relay. Socket reads run on the caller's goroutine, inbox
// frames and writes each get their own.
type client struct {
	server *Server
	logger *slog.Logger
	conn   *websocket.Conn
	peerID string
	host   bool
	send   chan []byte

	mu      sync.Mutex
	partner string
	dialing string
}

func newClient(server *Server, conn *websocket.Conn, peerID string, host bool) *client {
	return &client{
		server: server,
		logger: server.logger.With("peer", peerID),
		conn:   conn,
		peerID: peerID,
		host:   host,
		send:   make(chan []byte, sendBuffer),
	}
}

func (that *client) run(parent context.Context) {
	log := that.logger.With("method", "run")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer that.conn.Close()

	claimed, err := that.server.broker.Claim(ctx, that.peerID, that.server.options.ClaimTTL)
	if err != nil {
		log.Error("failed to claim peer id", "error", err)
		that.reject(entity.ReasonInternal)
		return
	}

	if !claimed {
		log.Info("peer id already registered")
		that.server.metrics.DialFailures.WithLabelValues(entity.ReasonUnavailableID).Inc()
		that.reject(entity.ReasonUnavailableID)
		return
	}

	defer that.release()

	inbox, err := that.server.broker.Subscribe(ctx, that.peerID)
	if err != nil {
		log.Error("failed to subscribe to inbox", "error", err)
		that.reject(entity.ReasonInternal)
		return
	}
	defer inbox.Close()

	that.server.metrics.ConnectedPeers.Inc()
	defer that.server.metrics.ConnectedPeers.Dec()

	if that.host {
		that.server.record(ctx, entity.AuditChannelOpened, that.peerID, "")
	}

	go that.writePump(ctx)
	go that.inboxPump(ctx, inbox.Messages())

	that.enqueue(ctx, entity.Frame{Kind: entity.FrameRegistered, Peer: that.peerID})
	that.readPump(ctx)
	that.leave(ctx)
}

// reject answers a socket that never got registered.
func (that *client) reject(reason string) {
	data, err := json.Marshal(entity.Frame{Kind: entity.FrameError, Peer: that.peerID, Reason: reason})
	if err != nil {
		return
	}

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = that.conn.WriteMessage(websocket.TextMessage, data)
	_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
}

func (that *client) readPump(ctx context.Context) {
	log := that.logger.With("method", "readPump")

	pongWait := 2 * that.server.options.PingPeriod

	that.conn.SetReadLimit(that.server.options.MaxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("socket closed unexpectedly", "error", err)
			}
			return
		}

		var frame entity.Frame
		if err = json.Unmarshal(data, &frame); err != nil {
			log.Warn("ignoring malformed frame", "error", err)
			continue
		}

		that.handleSocketFrame(ctx, frame)
	}
}

func (that *client) writePump(ctx context.Context) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(that.server.options.PingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("failed to write frame", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

			if err := that.server.broker.Refresh(ctx, that.peerID, that.server.options.ClaimTTL); err != nil {
				log.Warn("failed to refresh claim", "error", err)
			}
		case <-ctx.Done():
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (that *client) inboxPump(ctx context.Context, messages <-chan []byte) {
	log := that.logger.With("method", "inboxPump")

	for {
		select {
		case data, ok := <-messages:
			if !ok {
				return
			}

			var frame entity.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				log.Error("dropping malformed inbox frame", "error", err)
				continue
			}

			that.handleInboxFrame(ctx, frame)
		case <-ctx.Done():
			return
		}
	}
}

func (that *client) enqueue(ctx context.Context, frame entity.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		that.logger.Error("failed to marshal frame", "kind", frame.Kind, "error", err)
		return
	}

	select {
	case that.send <- data:
	case <-ctx.Done():
	}
}

func (that *client) publish(ctx context.Context, peerID string, frame entity.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		that.logger.Error("failed to marshal frame", "kind", frame.Kind, "error", err)
		return
	}

	if err = that.server.broker.Publish(ctx, peerID, data); err != nil {
		that.logger.Warn("failed to publish frame", "kind", frame.Kind, "to", peerID, "error", err)
		return
	}

	that.server.metrics.Frames.WithLabelValues(string(frame.Kind)).Inc()
}

// leave tells the partner, if any, that this side is gone.
func (that *client) leave(ctx context.Context) {
	that.mu.Lock()
	partner := that.partner
	that.partner = ""
	that.mu.Unlock()

	if partner != "" {
		that.publish(ctx, partner, entity.Frame{Kind: entity.FrameClose, Peer: that.peerID})

		if that.host {
			that.server.metrics.OpenChannels.Dec()
		}
	}

	if that.host {
		that.server.record(ctx, entity.AuditChannelClosed, that.peerID, partner)
	}

	that.logger.Info("peer left", "partner", partner)
}

// release runs detached from the request context, which may already be gone.
func (that *client) release() {
	ctx, cancel := context.WithTimeout(context.Background(), releaseWait)
	defer cancel()

	if err := that.server.broker.Release(ctx, that.peerID); err != nil {
		that.logger.Warn("failed to release claim", "error", err)
	}
}
