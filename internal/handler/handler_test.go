package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"openlingua/internal/cookie"
	"openlingua/internal/event"
	"openlingua/internal/metrics"
	"openlingua/internal/middleware"
	"openlingua/internal/model"
	"openlingua/internal/repository"
	"openlingua/internal/service"
	"openlingua/internal/token"
)

type fixture struct {
	users      *repository.MemoryUserRepository
	events     *repository.MemoryAuditRepository
	issuer     *token.Issuer
	transport  *cookie.Transport
	accounts   *service.AccountService
	identities *service.IdentityService
	audit      *service.AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	access, err := token.NewCodec("access-secret", 15*time.Minute, token.AudienceAccess)
	require.NoError(t, err)
	refresh, err := token.NewCodec("refresh-secret", 7*24*time.Hour, token.AudienceRefresh)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(access, refresh)
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	events := repository.NewMemoryAuditRepository()
	bus := event.Discard{}
	m := metrics.New(prometheus.NewRegistry())

	return &fixture{
		users:      users,
		events:     events,
		issuer:     issuer,
		transport:  cookie.NewTransport(false, access.TTL(), refresh.TTL()),
		accounts:   service.NewAccountService(users, issuer, bus, m, service.WithBcryptCost(bcrypt.MinCost)),
		identities: service.NewIdentityService(users, bus, m),
		audit:      service.NewAuditService(events, bus),
	}
}

func (f *fixture) authHandler() *AuthHandler {
	return NewAuthHandler(f.accounts, f.audit, f.transport)
}

func jsonRequest(method string, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withPrincipal(req *http.Request, userID string, email string) *http.Request {
	ctx := middleware.ContextWithIdentity(req.Context(), model.Principal{UserID: userID, Email: email})
	return req.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func seedPasswordUser(t *testing.T, f *fixture, email string, password string) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)

	u := model.User{
		ID:           "11111111-1111-1111-1111-111111111111",
		Email:        email,
		PasswordHash: &hashed,
		Name:         "Ada",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}
