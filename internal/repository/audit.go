package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type AuditRepository interface {
	Record(ctx context.Context, record entity.AuditRecord) error
	ListByChannel(ctx context.Context, channelID string, limit int) ([]entity.AuditRecord, error)
}

type dbAudit struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) AuditRepository {
	return &dbAudit{
		db: db,
	}
}

func (that *dbAudit) Record(ctx context.Context, record entity.AuditRecord) error {
	_, err := that.db.Exec(ctx, `
		INSERT INTO channel_audit (action, channel_id, peer_id)
		VALUES ($1, $2, $3)
	`, string(record.Action), record.ChannelID, record.PeerID)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// ListByChannel returns the newest records of a channel first.
func (that *dbAudit) ListByChannel(ctx context.Context, channelID string, limit int) ([]entity.AuditRecord, error) {
	rows, err := that.db.Query(ctx, `
		SELECT action, channel_id, peer_id, created_at
		FROM channel_audit
		WHERE channel_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []entity.AuditRecord
	for rows.Next() {
		var (
			record entity.AuditRecord
			action string
		)

		if err = rows.Scan(&action, &record.ChannelID, &record.PeerID, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		record.Action = entity.AuditAction(action)
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit records: %w", err)
	}

	return records, nil
}

// noopAudit is used when no database is configured.
type noopAudit struct{}

func NewNoopAuditRepository() AuditRepository {
	return noopAudit{}
}

func (noopAudit) Record(context.Context, entity.AuditRecord) error {
	return nil
}

func (noopAudit) ListByChannel(context.Context, string, int) ([]entity.AuditRecord, error) {
	return nil, nil
}
