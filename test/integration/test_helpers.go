//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"openlingua/internal/app"
	"openlingua/internal/config"
	"openlingua/internal/handler"
	"openlingua/internal/repository"
)

type testServer struct {
	*httptest.Server
	components *app.Components
	users      *repository.MemoryUserRepository
	events     *repository.MemoryAuditRepository
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:           config.EnvDevelopment,
		ServerPort:       "0",
		RequestTimeout:   5 * time.Second,
		DatabaseURL:      "postgres://unused",
		JWTAccessSecret:  "integration-access-secret",
		JWTRefreshSecret: "integration-refresh-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    7 * 24 * time.Hour,
		BcryptCost:       4,
		FrontendURL:      "http://localhost:3000",
		CORSOrigins:      []string{"http://localhost:3000"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, provider handler.IdentityProvider) *testServer {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	events := repository.NewMemoryAuditRepository()

	components, err := app.Build(cfg, app.Stores{Users: users, Audit: events}, provider)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		components.Audit.Run(ctx)
	}()

	server := httptest.NewServer(components.Handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})

	return &testServer{Server: server, components: components, users: users, events: events}
}

// browser keeps cookies across calls and never follows redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func get(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func do(t *testing.T, client *http.Client, req *http.Request) *http.Response {
	t.Helper()

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
