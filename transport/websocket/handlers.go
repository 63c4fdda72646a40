package websocket

import (
	"context"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// handleSocketFrame processes a frame the attached peer wrote to its socket.
func (that *client) handleSocketFrame(ctx context.Context, frame entity.Frame) {
	switch frame.Kind {
	case entity.FrameDial:
		that.handleDial(ctx, frame.Peer)
	case entity.FrameData:
		that.mu.Lock()
		partner := that.partner
		that.mu.Unlock()

		if partner == "" {
			that.logger.Warn("dropping data without partner")
			return
		}

		that.publish(ctx, partner, entity.Frame{Kind: entity.FrameData, Peer: that.peerID, Data: frame.Data})
	default:
		that.logger.Debug("ignoring socket frame", "kind", frame.Kind)
	}
}

func (that *client) handleDial(ctx context.Context, target string) {
	log := that.logger.With("method", "handleDial", "target", target)

	that.mu.Lock()
	busy := that.host || that.partner != "" || that.dialing != ""
	that.mu.Unlock()

	if busy || target == "" || target == that.peerID {
		log.Warn("refusing dial")
		that.refuseDial(ctx, target)
		return
	}

	claimed, err := that.server.broker.IsClaimed(ctx, target)
	if err != nil {
		log.Error("failed to look up target", "error", err)
		that.refuseDial(ctx, target)
		return
	}

	if !claimed {
		log.Info("dial target not registered")
		that.refuseDial(ctx, target)
		return
	}

	that.mu.Lock()
	that.dialing = target
	that.mu.Unlock()

	that.publish(ctx, target, entity.Frame{Kind: entity.FrameConnection, Peer: that.peerID})
}

func (that *client) refuseDial(ctx context.Context, target string) {
	that.server.metrics.DialFailures.WithLabelValues(entity.ReasonPeerUnavailable).Inc()
	that.enqueue(ctx, entity.Frame{Kind: entity.FrameError, Peer: target, Reason: entity.ReasonPeerUnavailable})
}

// handleInboxFrame processes a frame another peer routed to this one through the broker.
func (that *client) handleInboxFrame(ctx context.Context, frame entity.Frame) {
	switch frame.Kind {
	case entity.FrameConnection:
		that.handleIncomingGuest(ctx, frame.Peer)
	case entity.FrameOpen:
		that.mu.Lock()
		accepted := that.dialing == frame.Peer
		if accepted {
			that.partner = frame.Peer
			that.dialing = ""
		}
		that.mu.Unlock()

		if accepted {
			that.enqueue(ctx, frame)
		}
	case entity.FrameError:
		that.mu.Lock()
		that.dialing = ""
		that.mu.Unlock()

		that.enqueue(ctx, frame)
	case entity.FrameData:
		if that.isPartner(frame.Peer) {
			that.enqueue(ctx, entity.Frame{Kind: entity.FrameData, Data: frame.Data})
		}
	case entity.FrameClose:
		that.mu.Lock()
		closed := that.partner == frame.Peer
		if closed {
			that.partner = ""
		}
		that.mu.Unlock()

		if !closed {
			return
		}

		if that.host {
			that.server.metrics.OpenChannels.Dec()
		}
		that.enqueue(ctx, frame)
	default:
		that.logger.Debug("ignoring inbox frame", "kind", frame.Kind)
	}
}

// handleIncomingGuest attaches the first guest to a host channel. Later guests are refused.
func (that *client) handleIncomingGuest(ctx context.Context, guestID string) {
	that.mu.Lock()
	accepted := that.host && that.partner == ""
	if accepted {
		that.partner = guestID
	}
	that.mu.Unlock()

	if !accepted {
		that.logger.Info("refusing guest, channel busy", "guest", guestID)
		that.server.metrics.DialFailures.WithLabelValues(entity.ReasonPeerUnavailable).Inc()
		that.publish(ctx, guestID, entity.Frame{Kind: entity.FrameError, Peer: that.peerID, Reason: entity.ReasonPeerUnavailable})
		return
	}

	that.logger.Info("guest attached", "guest", guestID)
	that.server.metrics.OpenChannels.Inc()
	that.server.record(ctx, entity.AuditPeerAttached, that.peerID, guestID)

	that.publish(ctx, guestID, entity.Frame{Kind: entity.FrameOpen, Peer: that.peerID})
	that.enqueue(ctx, entity.Frame{Kind: entity.FrameOpen, Peer: guestID})
}

func (that *client) isPartner(peerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return peerID != "" && that.partner == peerID
}
