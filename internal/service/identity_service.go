package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"openlingua/internal/event"
	"openlingua/internal/metrics"
	"openlingua/internal/model"
)

const fallbackDisplayName = "Google User"

// IdentityService maps a verified provider profile onto a local account.
type IdentityService struct {
	users   UserStore
	bus     event.Bus
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewIdentityService(users UserStore, bus event.Bus, m *metrics.Metrics) *IdentityService {
	if bus == nil {
		bus = event.Discard{}
	}
	return &IdentityService{users: users, bus: bus, metrics: m, now: time.Now}
}

// Reconcile resolves profile to exactly one local user. Lookup order is the
// provider id, then the normalized email (linking the provider to that
// account), and finally a new account. A profile without an email fails
// with model.ErrNoEmailInProfile before the store is touched.
//
// Matching on email links any account that owns the address, including one
// registered with a password. The provider is trusted to have verified it.
func (s *IdentityService) Reconcile(ctx context.Context, profile model.ExternalProfile) (model.User, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		s.metrics.AccountOperation("reconcile", metrics.ResultRejected)
		return model.User{}, model.ErrNoEmailInProfile
	}

	providerID := strings.TrimSpace(profile.ProviderID)
	if providerID == "" {
		return model.User{}, fmt.Errorf("reconcile: profile has no provider id")
	}

	user, err := s.users.FindByGoogleID(ctx, providerID)
	if err == nil {
		s.metrics.AccountOperation("reconcile", metrics.ResultSuccess)
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, s.fail(fmt.Errorf("find by google id: %w", err))
	}

	user, err = s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return s.link(ctx, user, providerID, profile.AvatarURL)
	case !errors.Is(err, model.ErrUserNotFound):
		return model.User{}, s.fail(fmt.Errorf("find by email: %w", err))
	}

	return s.create(ctx, email, providerID, profile)
}

func (s *IdentityService) link(ctx context.Context, user model.User, providerID string, avatarURL string) (model.User, error) {
	user.GoogleID = &providerID
	if (user.Avatar == nil || *user.Avatar == "") && avatarURL != "" {
		avatar := avatarURL
		user.Avatar = &avatar
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return model.User{}, s.fail(fmt.Errorf("link google account: %w", err))
	}

	s.metrics.AccountOperation("reconcile", metrics.ResultSuccess)
	s.bus.Publish(event.FromContext(ctx, event.TypeAccountLinked, user.ID, user.Email, "google"))

	return user, nil
}

func (s *IdentityService) create(ctx context.Context, email string, providerID string, profile model.ExternalProfile) (model.User, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = fallbackDisplayName
	}

	now := s.now().UTC()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		GoogleID:  &providerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.Avatar = &avatar
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, s.fail(fmt.Errorf("create google account: %w", err))
	}

	s.metrics.AccountOperation("reconcile", metrics.ResultSuccess)
	s.bus.Publish(event.FromContext(ctx, event.TypeAccountCreatedSSO, user.ID, user.Email, "google"))

	return user, nil
}

func (s *IdentityService) fail(err error) error {
	s.metrics.AccountOperation("reconcile", metrics.ResultError)
	return err
}
