// Package cookie owns the HTTP cookies that carry session credentials.
// Set and clear share one attribute set; browsers ignore a clear whose
// attributes differ from the ones the cookie was set with.
package cookie

import (
	"net/http"
	"strings"
	"time"

	"openlingua/internal/model"
)

const (
	AccessName  = "accessToken"
	RefreshName = "refreshToken"
	StateName   = "oauthState"

	DefaultAccessMaxAge  = 15 * time.Minute
	DefaultRefreshMaxAge = 7 * 24 * time.Hour
	StateMaxAge          = 5 * time.Minute
)

type Transport struct {
	secure        bool
	accessMaxAge  time.Duration
	refreshMaxAge time.Duration
}

func NewTransport(secure bool, accessMaxAge time.Duration, refreshMaxAge time.Duration) *Transport {
	if accessMaxAge <= 0 {
		accessMaxAge = DefaultAccessMaxAge
	}
	if refreshMaxAge <= 0 {
		refreshMaxAge = DefaultRefreshMaxAge
	}

	return &Transport{
		secure:        secure,
		accessMaxAge:  accessMaxAge,
		refreshMaxAge: refreshMaxAge,
	}
}

func (t *Transport) Attach(w http.ResponseWriter, pair model.CredentialPair) {
	http.SetCookie(w, t.build(AccessName, pair.AccessToken, int(t.accessMaxAge.Seconds())))
	http.SetCookie(w, t.build(RefreshName, pair.RefreshToken, int(t.refreshMaxAge.Seconds())))
}

func (t *Transport) Detach(w http.ResponseWriter) {
	http.SetCookie(w, t.build(AccessName, "", -1))
	http.SetCookie(w, t.build(RefreshName, "", -1))
}

// Read returns the access and refresh values; a missing or blank cookie
// reads as "".
func (t *Transport) Read(r *http.Request) (accessToken string, refreshToken string) {
	return readValue(r, AccessName), readValue(r, RefreshName)
}

func (t *Transport) AttachState(w http.ResponseWriter, state string) {
	http.SetCookie(w, t.build(StateName, state, int(StateMaxAge.Seconds())))
}

func (t *Transport) ReadState(r *http.Request) string {
	return readValue(r, StateName)
}

func (t *Transport) DetachState(w http.ResponseWriter) {
	http.SetCookie(w, t.build(StateName, "", -1))
}

func (t *Transport) build(name string, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func readValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	c, err := r.Cookie(name)
	if err != nil || c == nil {
		return ""
	}

	return strings.TrimSpace(c.Value)
}
