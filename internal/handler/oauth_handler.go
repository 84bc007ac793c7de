package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"openlingua/internal/cookie"
	"openlingua/internal/model"
	"openlingua/internal/oauth"
	"openlingua/internal/service"
)

// Redirect codes the frontend login page understands.
const (
	CallbackOAuthError  = "oauth_error"
	CallbackOAuthFailed = "oauth_failed"
	CallbackServerError = "server_error"
)

// IdentityProvider is the slice of an OAuth provider the callback flow uses.
type IdentityProvider interface {
	AuthCodeURL(state string, verifier string) string
	Exchange(ctx context.Context, code string, verifier string) (model.ExternalProfile, error)
}

type OAuthHandler struct {
	provider    IdentityProvider
	identities  *service.IdentityService
	accounts    *service.AccountService
	transport   *cookie.Transport
	frontendURL string
}

func NewOAuthHandler(provider IdentityProvider, identities *service.IdentityService, accounts *service.AccountService, transport *cookie.Transport, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		identities:  identities,
		accounts:    accounts,
		transport:   transport,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// GoogleStart pins a fresh state and PKCE verifier to the browser and sends
// it to the consent screen.
func (h *OAuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	verifier := oauth.NewVerifier()

	h.transport.AttachState(w, state+"."+verifier)
	http.Redirect(w, r, h.provider.AuthCodeURL(state, verifier), http.StatusFound)
}

func (h *OAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pinned := h.transport.ReadState(r)
	h.transport.DetachState(w)

	if providerErr := query.Get("error"); providerErr != "" {
		h.fail(w, r, CallbackOAuthError, model.ErrProviderDenied, "provider_error", providerErr)
		return
	}

	verifier, ok := matchState(pinned, query.Get("state"))
	if !ok {
		h.fail(w, r, CallbackOAuthError, model.ErrStateMismatch)
		return
	}

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		h.fail(w, r, CallbackOAuthFailed, errors.New("callback without authorization code"))
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code, verifier)
	if err != nil {
		h.fail(w, r, CallbackOAuthError, err)
		return
	}

	user, err := h.identities.Reconcile(r.Context(), profile)
	if errors.Is(err, model.ErrNoEmailInProfile) {
		h.fail(w, r, CallbackOAuthFailed, err)
		return
	}
	if err != nil {
		h.fail(w, r, CallbackOAuthError, err)
		return
	}

	pair, err := h.accounts.IssueFor(r.Context(), user)
	if err != nil {
		h.fail(w, r, CallbackServerError, err, "user_id", user.ID)
		return
	}

	h.transport.Attach(w, pair)
	http.Redirect(w, r, h.frontendURL+"/dashboard", http.StatusFound)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, code string, err error, attrs ...any) {
	slog.Warn("google sign-in failed", append([]any{"outcome", code, "error", err}, attrs...)...)
	http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(code), http.StatusFound)
}

// matchState compares the pinned "state.verifier" cookie with the state the
// provider echoed back and returns the verifier on a match.
func matchState(pinned string, echoed string) (string, bool) {
	state, verifier, found := strings.Cut(pinned, ".")
	if !found || state == "" || verifier == "" || echoed == "" {
		return "", false
	}
	if state != echoed {
		return "", false
	}
	return verifier, true
}
