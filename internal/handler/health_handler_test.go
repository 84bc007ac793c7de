package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openlingua/internal/model"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Health(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	t.Parallel()

	healthy := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }))
	rec := httptest.NewRecorder()
	healthy.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[model.HealthResponse](t, rec)
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, "Server is healthy", body.Message)
	assert.NotEmpty(t, body.Timestamp)

	down := NewHealthHandler(pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") }))
	rec = httptest.NewRecorder()
	down.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEGRADED", decodeBody[model.HealthResponse](t, rec).Status)
}

func TestWriteErrorHidesUnknownErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: relation users does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgUnexpected, decodeBody[model.ErrorResponse](t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "relation")
}
