package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/session"
	"github.com/ieraasyl/SavorViews/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	t.Run("returns 200 OK with correct structure", func(t *testing.T) {
		store, err := session.NewStore(context.Background(), session.NewMemoryStorage())
		require.NoError(t, err)
		handler := NewHealthHandler("tab-1", "Chrome on Windows", store, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.Health(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response HealthResponse
		err = json.Unmarshal(rec.Body.Bytes(), &response)
		require.NoError(t, err)

		assert.Equal(t, "ok", response.Status)
		assert.False(t, response.Timestamp.IsZero())
		assert.Equal(t, "tab-1", response.TabID)
		assert.Equal(t, "Chrome on Windows", response.Device)
		assert.False(t, response.Authenticated)
		assert.Nil(t, response.Services) // Health doesn't check services
	})

	t.Run("includes correct content-type header", func(t *testing.T) {
		handler := &HealthHandler{}
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		handler.Health(rec, req)

		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})
}

func TestReady(t *testing.T) {
	t.Run("all services healthy returns 200 OK", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()

		fb := testutil.NewFakeBackend(t)
		client, err := api.NewClient(fb.BackendConfig())
		require.NoError(t, err)

		storage := testutil.NewTestTabStorage(t, mr, "tab-ready")
		handler := NewHealthHandler("tab-ready", "", nil, storage, client)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rec := httptest.NewRecorder()

		handler.Ready(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "ok", response.Status)
		assert.Equal(t, map[string]string{"storage": "healthy", "backend": "healthy"}, response.Services)
	})

	t.Run("unreachable backend returns 503", func(t *testing.T) {
		down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
		up := pingerFunc(func(context.Context) error { return nil })
		handler := NewHealthHandler("tab-1", "", nil, up, down)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rec := httptest.NewRecorder()

		handler.Ready(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var response HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "healthy", response.Services["storage"])
		assert.Equal(t, "unhealthy", response.Services["backend"])
	})

	t.Run("stopped redis returns 503", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		defer cleanup()

		storage := testutil.NewTestTabStorage(t, mr, "tab-down")
		handler := NewHealthHandler("tab-down", "", nil, storage, nil)
		mr.Close()

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rec := httptest.NewRecorder()

		handler.Ready(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"storage":"unhealthy"`)
	})
}

// Benchmark health endpoint
func BenchmarkHealth(b *testing.B) {
	handler := &HealthHandler{}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.Health(rec, req)
	}
}
