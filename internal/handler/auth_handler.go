package handler

import (
	"net/http"
	"strconv"

	"openlingua/internal/cookie"
	"openlingua/internal/middleware"
	"openlingua/internal/model"
	"openlingua/internal/service"
	"openlingua/pkg/apierror"
)

type AuthHandler struct {
	accounts  *service.AccountService
	audit     *service.AuditService
	transport *cookie.Transport
}

func NewAuthHandler(accounts *service.AccountService, audit *service.AuditService, transport *cookie.Transport) *AuthHandler {
	return &AuthHandler{accounts: accounts, audit: audit, transport: transport}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.transport.Attach(w, session.Credentials)
	writeJSON(w, http.StatusCreated, model.SessionResponse{
		Message: "Account created successfully!",
		User:    session.User,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.transport.Attach(w, session.Credentials)
	writeJSON(w, http.StatusOK, model.SessionResponse{
		Message: "Login successful",
		User:    session.User,
	})
}

// Logout clears both cookies. Credentials are stateless, so a copy taken
// before logout stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if principal, ok := middleware.IdentityFromContext(r.Context()); ok {
		h.accounts.Logout(r.Context(), principal)
	}

	h.transport.Detach(w)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Authentication required"))
		return
	}

	profile, err := h.accounts.CurrentUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileResponse{User: profile})
}

func (h *AuthHandler) Activity(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Authentication required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, apierror.Validation("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.audit.RecentActivity(r.Context(), principal.UserID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ActivityResponse{Events: events})
}
