package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"openlingua/internal/event"
	"openlingua/internal/model"
	"openlingua/internal/token"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User

	creates int
	updates int

	findErr   error
	createErr error
	updateErr error
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return model.User{}, s.findErr
	}
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return model.User{}, s.findErr
	}
	for _, u := range s.users {
		if u.Email == strings.ToLower(strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) FindByGoogleID(_ context.Context, googleID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return model.User{}, s.findErr
	}
	for _, u := range s.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("users_email_key: %w", model.ErrUserAlreadyExists)
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) Update(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) mutations() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates, s.updates
}

// recordingBus keeps every published event in order.
type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(e event.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) Subscribe() (<-chan event.Event, func()) {
	return event.Discard{}.Subscribe()
}

func (b *recordingBus) types() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]event.Type, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestIssuer(t *testing.T) *token.Issuer {
	t.Helper()

	access, err := token.NewCodec("access-secret", 15*time.Minute, token.AudienceAccess)
	require.NoError(t, err)
	refresh, err := token.NewCodec("refresh-secret", 7*24*time.Hour, token.AudienceRefresh)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(access, refresh)
	require.NoError(t, err)
	return issuer
}

func passwordUser(t *testing.T, id string, email string, password string) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.User{
		ID:           id,
		Email:        email,
		PasswordHash: &hashed,
		Name:         "Ada",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func strPtr(s string) *string { return &s }
