package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type auditLister interface {
	ListByChannel(ctx context.Context, channelID string, limit int) ([]entity.AuditRecord, error)
}

type auditRecordResponse struct {
	Action    string    `json:"action"`
	ChannelID string    `json:"channel_id"`
	PeerID    string    `json:"peer_id"`
	CreatedAt time.Time `json:"created_at"`
}

type auditHandler struct {
	logger *slog.Logger
	audit  auditLister
}

// list serves the newest lifecycle records of a room channel.
func (that *auditHandler) list(c *gin.Context) {
	log := that.logger.With("method", "list")

	roomID, err := entity.NormalizeRoomID(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxAuditLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxAuditLimit)})
			return
		}
	}

	records, err := that.audit.ListByChannel(c.Request.Context(), entity.ChannelID(roomID), limit)
	if err != nil {
		log.Error("failed to list audit records", "room", roomID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit records"})
		return
	}

	response := make([]auditRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, auditRecordResponse{
			Action:    string(record.Action),
			ChannelID: record.ChannelID,
			PeerID:    record.PeerID,
			CreatedAt: record.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"room": roomID, "records": response})
}
