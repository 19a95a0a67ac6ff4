package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brandloom/brandloom/engine/infra/server/routes"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/ginmode"
	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverTestContext(t *testing.T, sources ...config.Source) context.Context {
	t.Helper()
	ginmode.EnsureGinTestMode()
	ctx := logger.ContextWithLogger(t.Context(), logger.NewForTests())
	manager := config.NewManager(config.NewService())
	_, err := manager.Load(ctx, append([]config.Source{config.NewDefaultProvider()}, sources...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close(context.Background()) })
	return config.ContextWithManager(ctx, manager)
}

func yamlSource(t *testing.T, content string) config.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brandloom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return config.NewYAMLProvider(path)
}

func builtServer(t *testing.T, sources ...config.Source) *Server {
	t.Helper()
	ctx := serverTestContext(t, sources...)
	srv, err := NewServer(ctx, "")
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)
	srv.setupMonitoring()
	t.Cleanup(srv.shutdownMonitoring)
	require.NoError(t, srv.buildRouter())
	return srv
}

type healthPayload struct {
	Data struct {
		Status     string `json:"status"`
		Version    string `json:"version"`
		Ready      bool   `json:"ready"`
		Monitoring struct {
			Enabled bool   `json:"enabled"`
			Status  string `json:"status"`
			Error   string `json:"error"`
		} `json:"monitoring"`
		ConfigSources []string `json:"config_sources"`
	} `json:"data"`
	Message string `json:"message"`
}

func TestServerRouter(t *testing.T) {
	t.Run("Should serve health with monitoring disabled", func(t *testing.T) {
		srv := builtServer(t)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, routes.HealthVersioned(), http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		var payload healthPayload
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, "Success", payload.Message)
		assert.Equal(t, "healthy", payload.Data.Status)
		assert.True(t, payload.Data.Ready)
		assert.False(t, payload.Data.Monitoring.Enabled)
		assert.Equal(t, "ready", payload.Data.Monitoring.Status)
		assert.Contains(t, payload.Data.ConfigSources, "default")
	})
	t.Run("Should resolve a turn through the full middleware stack", func(t *testing.T) {
		srv := builtServer(t)
		body := `{"history": [], "utterance": "brighten the logo"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, routes.Resolve(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		var payload struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, "turn resolved", payload.Message)
	})
	t.Run("Should not expose metrics when monitoring is disabled", func(t *testing.T) {
		srv := builtServer(t)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, routes.Metrics(), http.NoBody))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("Should reject bodies over the configured size limit", func(t *testing.T) {
		srv := builtServer(t, yamlSource(t, "server:\n  max_body_bytes: 64\n"))
		payload := `{"history": [], "utterance": "` + strings.Repeat("x", 256) + `"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, routes.Resolve(), strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServerRateLimiting(t *testing.T) {
	t.Run("Should throttle past the configured global limit", func(t *testing.T) {
		// The resolve and truncate routes carry their own rate overrides, so
		// the root endpoint is the one governed by the global bucket.
		srv := builtServer(t, yamlSource(t, "ratelimit:\n  global_rate:\n    limit: 1\n"))
		first := httptest.NewRecorder()
		srv.Router().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		require.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

		second := httptest.NewRecorder()
		srv.Router().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
	})
	t.Run("Should apply the tighter route rate on resolve", func(t *testing.T) {
		srv := builtServer(t, yamlSource(t, "ratelimit:\n  global_rate:\n    limit: 100\n"))
		body := `{"history": [], "utterance": "hi"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, routes.Resolve(), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		srv.Router().ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	})
	t.Run("Should keep health exempt from throttling", func(t *testing.T) {
		srv := builtServer(t, yamlSource(t, "ratelimit:\n  global_rate:\n    limit: 1\n"))
		for range 3 {
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, routes.HealthVersioned(), http.NoBody))
			require.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestServerHealthDegraded(t *testing.T) {
	t.Run("Should report 503 when monitoring fails to initialize", func(t *testing.T) {
		srv := builtServer(t, yamlSource(t, "monitoring:\n  enabled: true\n  path: metrics\n"))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, routes.HealthVersioned(), http.NoBody))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var payload healthPayload
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, "degraded", payload.Data.Status)
		assert.False(t, payload.Data.Ready)
		assert.True(t, payload.Data.Monitoring.Enabled)
		assert.Equal(t, "not_ready", payload.Data.Monitoring.Status)
		assert.Contains(t, payload.Data.Monitoring.Error, "must start with")
	})
}

func TestServerMetricsEndpoint(t *testing.T) {
	t.Run("Should expose prometheus metrics when monitoring is enabled", func(t *testing.T) {
		srv := builtServer(t, yamlSource(t, "monitoring:\n  enabled: true\n"))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, routes.Metrics(), http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "brandloom_")
	})
}
