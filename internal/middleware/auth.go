package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"openlingua/internal/cookie"
	"openlingua/internal/event"
	"openlingua/internal/metrics"
	"openlingua/internal/model"
)

const (
	msgAuthRequired   = "Authentication required"
	msgSessionExpired = "Session expired, please login again"
	msgUserNotFound   = "User not found"
	msgAuthError      = "Authentication error"
)

// UserFinder is the only store access the gate needs: confirming that the
// subject of a refresh credential still exists.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type credentialIssuer interface {
	Issue(subjectID string, email string) (model.CredentialPair, error)
	VerifyAccess(tokenString string) (model.Claim, error)
	VerifyRefresh(tokenString string) (model.Claim, error)
}

type principalKey struct{}

// AuthMiddleware admits requests carrying a valid access credential and
// silently rotates the pair when only the refresh credential is still good.
type AuthMiddleware struct {
	issuer    credentialIssuer
	transport *cookie.Transport
	users     UserFinder
	bus       event.Bus
	metrics   *metrics.Metrics
}

func NewAuthMiddleware(issuer credentialIssuer, transport *cookie.Transport, users UserFinder, bus event.Bus, m *metrics.Metrics) *AuthMiddleware {
	if bus == nil {
		bus = event.Discard{}
	}
	return &AuthMiddleware{issuer: issuer, transport: transport, users: users, bus: bus, metrics: m}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.authenticate(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate writes the rejection itself and reports false when the
// request must stop here.
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (principal model.Principal, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("authentication gate panic", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
			m.metrics.GateOutcome(metrics.GateError)
			writeError(w, http.StatusInternalServerError, msgAuthError)
			principal, ok = model.Principal{}, false
		}
	}()

	accessToken, refreshToken := m.transport.Read(r)
	if accessToken == "" && refreshToken == "" {
		m.metrics.GateOutcome(metrics.GateNoCredentials)
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return model.Principal{}, false
	}

	if accessToken != "" {
		if claim, err := m.issuer.VerifyAccess(accessToken); err == nil {
			m.metrics.GateOutcome(metrics.GateAccessValid)
			return model.Principal{UserID: claim.Subject, Email: claim.Email}, true
		}
	}

	if refreshToken == "" {
		m.metrics.GateOutcome(metrics.GateNoCredentials)
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return model.Principal{}, false
	}

	claim, err := m.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		m.transport.Detach(w)
		m.metrics.GateOutcome(metrics.GateRefreshFailed)
		m.bus.Publish(event.FromContext(r.Context(), event.TypeSessionRejected, "", "", "refresh credential invalid or expired"))
		writeError(w, http.StatusUnauthorized, msgSessionExpired)
		return model.Principal{}, false
	}

	user, err := m.users.FindByID(r.Context(), claim.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		m.transport.Detach(w)
		m.metrics.GateOutcome(metrics.GateUserMissing)
		m.bus.Publish(event.FromContext(r.Context(), event.TypeSessionRejected, claim.Subject, "", "user no longer exists"))
		writeError(w, http.StatusUnauthorized, msgUserNotFound)
		return model.Principal{}, false
	}
	if err != nil {
		// Cookies stay: a store outage says nothing about the credential.
		slog.Error("authentication gate lookup failed", "user_id", claim.Subject, "error", err)
		m.metrics.GateOutcome(metrics.GateError)
		writeError(w, http.StatusInternalServerError, msgAuthError)
		return model.Principal{}, false
	}

	pair, err := m.issuer.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("authentication gate rotation failed", "user_id", user.ID, "error", err)
		m.metrics.GateOutcome(metrics.GateError)
		writeError(w, http.StatusInternalServerError, msgAuthError)
		return model.Principal{}, false
	}

	m.transport.Attach(w, pair)
	m.metrics.GateOutcome(metrics.GateRotated)
	m.bus.Publish(event.FromContext(r.Context(), event.TypeSessionRotated, user.ID, user.Email, ""))

	return model.Principal{UserID: user.ID, Email: user.Email, Rotated: true}, true
}

// IdentityFromContext returns the principal the gate attached, if any.
func IdentityFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(model.Principal)
	return principal, ok
}

// ContextWithIdentity is used by tests and internal callers that already
// hold a resolved principal.
func ContextWithIdentity(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}
