package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"openlingua/internal/model"
)

const maxAuditLimit = 100

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_events (id, action, occurred_at, user_id, email, ip, detail)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Action, entry.OccurredAt, entry.UserID, entry.Email, entry.IP, entry.Detail)
	if err != nil {
		return fmt.Errorf("log auth event: %w", err)
	}
	return nil
}

// ListByUser returns the most recent events for one account, newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id::text, action, occurred_at, user_id, email, ip, detail
		 FROM auth_events
		 WHERE user_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query auth events: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.OccurredAt, &e.UserID, &e.Email, &e.IP, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan auth event: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
