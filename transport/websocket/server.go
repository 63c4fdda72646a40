// Package websocket is the relay: hosts register a channel, guests dial it and the relay forwards
// data frames between the two in arrival order.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/metrics"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

// Broker tracks which peer ids are live and routes frames between their inboxes.
type Broker interface {
	Claim(ctx context.Context, peerID string, ttl time.Duration) (bool, error)
	Refresh(ctx context.Context, peerID string, ttl time.Duration) error
	Release(ctx context.Context, peerID string) error
	IsClaimed(ctx context.Context, peerID string) (bool, error)
	Publish(ctx context.Context, peerID string, frame []byte) error
	Subscribe(ctx context.Context, peerID string) (repository.Subscription, error)
}

type auditor interface {
	Record(ctx context.Context, record entity.AuditRecord) error
}

type Options struct {
	// PingPeriod is also the claim refresh interval. Reads time out after two periods.
	PingPeriod     time.Duration
	ClaimTTL       time.Duration
	MaxMessageSize int64
}

type Server struct {
	logger   *slog.Logger
	broker   Broker
	audit    auditor
	metrics  *metrics.Relay
	options  Options
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, broker Broker, audit auditor, metrics *metrics.Relay, options Options) *Server {
	return &Server{
		logger:  logger.With("component", "relay"),
		broker:  broker,
		audit:   audit,
		metrics: metrics,
		options: options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades GET /ws. With ?peer=<id> the socket registers that id as a host
// channel; without it the relay assigns a guest id.
func (that *Server) HandleConnection(c *gin.Context) {
	log := that.logger.With("method", "HandleConnection")

	peerID := c.Query("peer")
	host := peerID != ""
	if !host {
		peerID = uuid.NewString()
	}

	conn, err := that.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "peer", peerID, "error", err)
		return
	}

	log.Info("websocket connection established", "peer", peerID, "host", host)

	newClient(that, conn, peerID, host).run(c.Request.Context())
}

func (that *Server) record(ctx context.Context, action entity.AuditAction, channelID, peerID string) {
	record := entity.AuditRecord{Action: action, ChannelID: channelID, PeerID: peerID}
	if err := that.audit.Record(ctx, record); err != nil {
		that.logger.Warn("failed to record audit", "action", action, "channel", channelID, "error", err)
	}
}
