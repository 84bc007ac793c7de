package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"openlingua/internal/model"
)

// MemoryUserRepository enforces the same uniqueness rules as the users
// table. It backs local runs without Postgres and the HTTP flow tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]model.User)}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) FindByGoogleID(_ context.Context, googleID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniqueLocked(u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if _, exists := r.users[u.ID]; exists {
		return fmt.Errorf("create user (users_pkey): %w", model.ErrUserAlreadyExists)
	}

	r.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.ID]; !exists {
		return fmt.Errorf("update user: %w", model.ErrUserNotFound)
	}
	if err := r.checkUniqueLocked(u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	r.users[u.ID] = u
	return nil
}

// Delete exists for tests that simulate an account removed mid-session.
func (r *MemoryUserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func (r *MemoryUserRepository) checkUniqueLocked(u model.User) error {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return fmt.Errorf("(users_email_key) %w", model.ErrUserAlreadyExists)
		}
		if u.GoogleID != nil && existing.GoogleID != nil && *existing.GoogleID == *u.GoogleID {
			return fmt.Errorf("(users_google_id_key) %w", model.ErrUserAlreadyExists)
		}
	}
	return nil
}

type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Log(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryAuditRepository) ListByUser(_ context.Context, userID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	r.mu.RLock()
	matched := make([]model.AuditEntry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
