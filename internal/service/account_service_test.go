package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"openlingua/internal/event"
	"openlingua/internal/metrics"
	"openlingua/internal/model"
	"openlingua/pkg/apierror"
)

func newTestAccountService(t *testing.T, store UserStore, bus event.Bus) *AccountService {
	t.Helper()
	return NewAccountService(store, newTestIssuer(t), bus, metrics.New(prometheus.NewRegistry()), WithBcryptCost(bcrypt.MinCost))
}

func requireAPIError(t *testing.T, err error, status int, message string) {
	t.Helper()

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, status, apiErr.HTTPStatus)
	assert.Equal(t, message, apiErr.Message)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates account with lowercased email and hashed password", func(t *testing.T) {
		t.Parallel()

		store := newFakeUserStore()
		bus := &recordingBus{}
		svc := newTestAccountService(t, store, bus)

		session, err := svc.Register(context.Background(), model.RegisterRequest{
			Email: "  Ada@Example.COM ", Password: "correct-horse", Name: " Ada ",
		})
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", session.User.Email)
		assert.Equal(t, "Ada", session.User.Name)
		assert.NotEmpty(t, session.User.ID)
		assert.NotEmpty(t, session.Credentials.AccessToken)
		assert.NotEmpty(t, session.Credentials.RefreshToken)

		stored, err := store.FindByID(context.Background(), session.User.ID)
		require.NoError(t, err)
		require.True(t, stored.HasPassword())
		assert.NotEqual(t, "correct-horse", *stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("correct-horse")))
		assert.Nil(t, stored.GoogleID)

		assert.Equal(t, []event.Type{event.TypeUserRegistered}, bus.types())
	})

	t.Run("validation messages", func(t *testing.T) {
		t.Parallel()

		svc := newTestAccountService(t, newFakeUserStore(), nil)

		cases := []struct {
			name string
			req  model.RegisterRequest
			want string
		}{
			{"missing name", model.RegisterRequest{Email: "a@b.co", Password: "12345678"}, msgRegisterMissing},
			{"missing everything", model.RegisterRequest{}, msgRegisterMissing},
			{"missing password with bad email", model.RegisterRequest{Email: "nope", Name: "A"}, msgRegisterMissing},
			{"bad email", model.RegisterRequest{Email: "not-an-email", Password: "12345678", Name: "A"}, msgEmailShape},
			{"email with space", model.RegisterRequest{Email: "a b@c.io", Password: "12345678", Name: "A"}, msgEmailShape},
			{"short password", model.RegisterRequest{Email: "a@b.co", Password: "1234567", Name: "A"}, msgPasswordLength},
		}

		for _, tc := range cases {
			_, err := svc.Register(context.Background(), tc.req)
			requireAPIError(t, err, http.StatusBadRequest, tc.want)
		}
	})

	t.Run("existing email is a conflict", func(t *testing.T) {
		t.Parallel()

		store := newFakeUserStore(passwordUser(t, "u-1", "ada@example.com", "correct-horse"))
		svc := newTestAccountService(t, store, nil)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Email: "ADA@example.com", Password: "another-pass", Name: "Other",
		})
		requireAPIError(t, err, http.StatusBadRequest, msgAccountExists)

		creates, _ := store.mutations()
		assert.Zero(t, creates)
	})

	t.Run("uniqueness race at create is a conflict", func(t *testing.T) {
		t.Parallel()

		store := newFakeUserStore()
		store.createErr = errors.Join(errors.New("users_email_key"), model.ErrUserAlreadyExists)
		svc := newTestAccountService(t, store, nil)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Email: "ada@example.com", Password: "correct-horse", Name: "Ada",
		})
		requireAPIError(t, err, http.StatusBadRequest, msgAccountExists)
	})

	t.Run("store failure is opaque", func(t *testing.T) {
		t.Parallel()

		store := newFakeUserStore()
		store.createErr = errors.New("connection reset")
		svc := newTestAccountService(t, store, nil)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Email: "ada@example.com", Password: "correct-horse", Name: "Ada",
		})
		requireAPIError(t, err, http.StatusInternalServerError, msgRegisterFailed)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("succeeds with case-insensitive email", func(t *testing.T) {
		t.Parallel()

		bus := &recordingBus{}
		store := newFakeUserStore(passwordUser(t, "u-1", "ada@example.com", "correct-horse"))
		svc := newTestAccountService(t, store, bus)

		session, err := svc.Login(context.Background(), model.LoginRequest{Email: "Ada@Example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, model.PublicUser{ID: "u-1", Email: "ada@example.com", Name: "Ada"}, session.User)
		assert.NotEmpty(t, session.Credentials.AccessToken)
		assert.Equal(t, []event.Type{event.TypeUserLoggedIn}, bus.types())
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		svc := newTestAccountService(t, newFakeUserStore(), nil)
		_, err := svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com"})
		requireAPIError(t, err, http.StatusBadRequest, msgLoginMissing)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		t.Parallel()

		google := model.User{ID: "u-2", Email: "sso@example.com", Name: "SSO", GoogleID: strPtr("g-2")}
		store := newFakeUserStore(passwordUser(t, "u-1", "ada@example.com", "correct-horse"), google)
		svc := newTestAccountService(t, store, nil)

		_, unknownErr := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
		_, wrongErr := svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "wrong-pass"})
		_, ssoErr := svc.Login(context.Background(), model.LoginRequest{Email: "sso@example.com", Password: "whatever1"})

		for _, err := range []error{unknownErr, wrongErr, ssoErr} {
			requireAPIError(t, err, http.StatusUnauthorized, msgInvalidLogin)
		}
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
		assert.Equal(t, wrongErr.Error(), ssoErr.Error())
	})

	t.Run("store failure is opaque", func(t *testing.T) {
		t.Parallel()

		store := newFakeUserStore()
		store.findErr = errors.New("timeout")
		svc := newTestAccountService(t, store, nil)

		_, err := svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
		requireAPIError(t, err, http.StatusInternalServerError, msgLoginFailed)
	})
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	user := passwordUser(t, "u-1", "ada@example.com", "correct-horse")
	user.Avatar = strPtr("https://cdn.example.com/ada.png")
	store := newFakeUserStore(user)
	svc := newTestAccountService(t, store, nil)

	profile, err := svc.CurrentUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, user.Profile(), profile)

	_, err = svc.CurrentUser(context.Background(), "u-404")
	requireAPIError(t, err, http.StatusNotFound, msgUserNotFound)
}

func TestLogoutPublishesEvent(t *testing.T) {
	t.Parallel()

	bus := &recordingBus{}
	svc := newTestAccountService(t, newFakeUserStore(), bus)

	ctx := event.ContextWithClientIP(context.Background(), "203.0.113.9")
	svc.Logout(ctx, model.Principal{UserID: "u-1", Email: "ada@example.com"})

	require.Len(t, bus.events, 1)
	assert.Equal(t, event.TypeUserLoggedOut, bus.events[0].Type)
	assert.Equal(t, "203.0.113.9", bus.events[0].IP)
}
