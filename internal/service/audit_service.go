package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"openlingua/internal/event"
	"openlingua/internal/model"
	"openlingua/pkg/apierror"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	auditWriteTimeout    = 5 * time.Second
)

// AuditService persists the authentication event trail and serves it back
// to the account owner.
type AuditService struct {
	store AuditStore
	bus   event.Bus
}

func NewAuditService(store AuditStore, bus event.Bus) *AuditService {
	return &AuditService{store: store, bus: bus}
}

// Run drains the bus into the store until ctx is cancelled. Write failures
// are logged and never surface to the request that raised the event.
func (s *AuditService) Run(ctx context.Context) {
	if s == nil || s.store == nil || s.bus == nil {
		return
	}

	events, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			s.record(ctx, e)
		}
	}
}

func (s *AuditService) record(ctx context.Context, e event.Event) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	entry := model.AuditEntry{
		ID:         e.ID,
		Action:     string(e.Type),
		OccurredAt: e.OccurredAt,
		UserID:     e.UserID,
		Email:      e.Email,
		IP:         e.IP,
		Detail:     e.Detail,
	}

	if err := s.store.Log(writeCtx, entry); err != nil {
		slog.Warn("auth event not persisted", "action", entry.Action, "event_id", entry.ID, "error", err)
	}
}

func (s *AuditService) RecentActivity(ctx context.Context, userID string, limit int) ([]model.AuditEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apierror.Unauthorized("Authentication required")
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	entries, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		slog.Error("list auth events failed", "user_id", userID, "error", err)
		return nil, apierror.Internal("Something went wrong fetching account activity", err)
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}

	return entries, nil
}
