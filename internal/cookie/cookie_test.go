package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"openlingua/internal/model"
)

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestAttachSetsBothCookies(t *testing.T) {
	t.Parallel()

	transport := NewTransport(false, 15*time.Minute, 7*24*time.Hour)
	rec := httptest.NewRecorder()

	transport.Attach(rec, model.CredentialPair{AccessToken: "access", RefreshToken: "refresh"})

	cookies := cookiesByName(rec)
	require.Len(t, cookies, 2)

	access := cookies[AccessName]
	require.NotNil(t, access)
	require.Equal(t, "access", access.Value)
	require.Equal(t, 900, access.MaxAge)

	refresh := cookies[RefreshName]
	require.NotNil(t, refresh)
	require.Equal(t, "refresh", refresh.Value)
	require.Equal(t, 604800, refresh.MaxAge)

	for _, c := range []*http.Cookie{access, refresh} {
		require.True(t, c.HttpOnly)
		require.False(t, c.Secure)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite)
		require.Equal(t, "/", c.Path)
	}
}

func TestDetachMirrorsAttachAttributes(t *testing.T) {
	t.Parallel()

	for _, secure := range []bool{true, false} {
		transport := NewTransport(secure, 0, 0)

		set := httptest.NewRecorder()
		transport.Attach(set, model.CredentialPair{AccessToken: "a", RefreshToken: "r"})
		cleared := httptest.NewRecorder()
		transport.Detach(cleared)

		setCookies := cookiesByName(set)
		clearCookies := cookiesByName(cleared)
		require.Len(t, clearCookies, 2)

		for _, name := range []string{AccessName, RefreshName} {
			s, c := setCookies[name], clearCookies[name]
			require.Equal(t, s.Path, c.Path)
			require.Equal(t, s.Domain, c.Domain)
			require.Equal(t, s.HttpOnly, c.HttpOnly)
			require.Equal(t, s.Secure, c.Secure)
			require.Equal(t, secure, c.Secure)
			require.Equal(t, s.SameSite, c.SameSite)
			require.Empty(t, c.Value)
			require.Less(t, c.MaxAge, 0)
		}
	}
}

func TestReadTreatsBlankAsAbsent(t *testing.T) {
	t.Parallel()

	transport := NewTransport(false, 0, 0)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	access, refresh := transport.Read(req)
	require.Empty(t, access)
	require.Empty(t, refresh)

	req.AddCookie(&http.Cookie{Name: AccessName, Value: "token-a"})
	req.AddCookie(&http.Cookie{Name: RefreshName, Value: "   "})
	access, refresh = transport.Read(req)
	require.Equal(t, "token-a", access)
	require.Empty(t, refresh)
}

func TestStateCookieRoundTrip(t *testing.T) {
	t.Parallel()

	transport := NewTransport(true, 0, 0)
	rec := httptest.NewRecorder()
	transport.AttachState(rec, "state-123")

	state := cookiesByName(rec)[StateName]
	require.NotNil(t, state)
	require.Equal(t, 300, state.MaxAge)
	require.True(t, state.Secure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(state)
	require.Equal(t, "state-123", transport.ReadState(req))

	cleared := httptest.NewRecorder()
	transport.DetachState(cleared)
	require.Less(t, cookiesByName(cleared)[StateName].MaxAge, 0)
}
