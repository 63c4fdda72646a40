package entity

import "time"

type AuditAction string

const (
	AuditChannelOpened AuditAction = "channel_opened"
	AuditPeerAttached  AuditAction = "peer_attached"
	AuditChannelClosed AuditAction = "channel_closed"
)

// AuditRecord is one lifecycle step of a relay channel.
type AuditRecord struct {
	Action    AuditAction
	ChannelID string
	PeerID    string
	CreatedAt time.Time
}
