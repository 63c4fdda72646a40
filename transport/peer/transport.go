// Package peer implements the session transport on top of the relay websocket.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/transport"
)

const handshakeTimeout = 10 * time.Second

type Transport struct {
	logger   *slog.Logger
	relayURL string
	dialer   *websocket.Dialer
}

// New returns a transport speaking to the relay socket at relayURL, e.g. ws://localhost:9090/ws.
func New(logger *slog.Logger, relayURL string) *Transport {
	return &Transport{
		logger:   logger.With("component", "peer"),
		relayURL: relayURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Listen registers channelID on the relay. It fails with apperror.ErrChannelTaken when another
// host holds the id.
func (that *Transport) Listen(ctx context.Context, channelID string) (transport.Conn, error) {
	ws, err := that.connect(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if _, err = awaitRegistered(ctx, ws); err != nil {
		_ = ws.Close()
		return nil, err
	}

	return newConn(that.logger, ws), nil
}

// Dial attaches to a channel registered by somebody else. The returned connection reports
// EventOpened once the host accepted, or EventError when nobody is there.
func (that *Transport) Dial(ctx context.Context, channelID string) (transport.Conn, error) {
	ws, err := that.connect(ctx, "")
	if err != nil {
		return nil, err
	}

	if _, err = awaitRegistered(ctx, ws); err != nil {
		_ = ws.Close()
		return nil, err
	}

	conn := newConn(that.logger, ws)
	if err = conn.write(entity.Frame{Kind: entity.FrameDial, Peer: channelID}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", channelID, err)
	}

	return conn, nil
}

func (that *Transport) connect(ctx context.Context, peerID string) (*websocket.Conn, error) {
	target, err := url.Parse(that.relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url: %w", err)
	}

	if peerID != "" {
		query := target.Query()
		query.Set("peer", peerID)
		target.RawQuery = query.Encode()
	}

	ws, resp, err := that.dialer.DialContext(ctx, target.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reach relay: %w", err)
	}

	return ws, nil
}

// awaitRegistered reads the first relay frame, which either confirms the peer id or refuses it.
func awaitRegistered(ctx context.Context, ws *websocket.Conn) (string, error) {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_ = ws.SetReadDeadline(deadline)
	defer func() {
		_ = ws.SetReadDeadline(time.Time{})
	}()

	_, data, err := ws.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("failed to register with relay: %w", err)
	}

	var frame entity.Frame
	if err = json.Unmarshal(data, &frame); err != nil {
		return "", fmt.Errorf("failed to register with relay: %w", err)
	}

	switch {
	case frame.Kind == entity.FrameRegistered:
		return frame.Peer, nil
	case frame.Kind == entity.FrameError && frame.Reason == entity.ReasonUnavailableID:
		return "", fmt.Errorf("%w: %s", apperror.ErrChannelTaken, frame.Peer)
	default:
		return "", fmt.Errorf("unexpected relay answer %q: %s", frame.Kind, frame.Reason)
	}
}
