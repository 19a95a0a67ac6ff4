package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brandloom/brandloom/engine/core"
	"github.com/brandloom/brandloom/engine/infra/server/routes"
	"github.com/brandloom/brandloom/pkg/ginmode"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSetupDiagnosticEndpoints(t *testing.T) {
	ginmode.EnsureGinTestMode()
	version := core.GetVersion()
	base := routes.Base()
	engine := gin.New()
	setupDiagnosticEndpoints(engine, version, base, nil)

	t.Run("Should return identical metadata for root and versioned base", func(t *testing.T) {
		recorderRoot := httptest.NewRecorder()
		recorderAPI := httptest.NewRecorder()
		requestRoot := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		requestRoot.Host = "example.com"
		requestAPI := httptest.NewRequest(http.MethodGet, base, http.NoBody)
		requestAPI.Host = "example.com"
		engine.ServeHTTP(recorderRoot, requestRoot)
		require.Equal(t, http.StatusOK, recorderRoot.Code)
		require.Equal(t, "application/json; charset=utf-8", recorderRoot.Header().Get("Content-Type"))
		engine.ServeHTTP(recorderAPI, requestAPI)
		require.Equal(t, http.StatusOK, recorderAPI.Code)
		require.Equal(t, "application/json; charset=utf-8", recorderAPI.Header().Get("Content-Type"))
		var rootBody map[string]any
		var apiBody map[string]any
		require.NoError(t, json.Unmarshal(recorderRoot.Body.Bytes(), &rootBody))
		require.NoError(t, json.Unmarshal(recorderAPI.Body.Bytes(), &apiBody))
		require.Equal(t, rootBody, apiBody)
	})

	t.Run("Should report liveness on healthz", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		engine.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusOK, recorder.Code)
		var body struct {
			Data struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		require.Equal(t, "ok", body.Data.Status)
	})

	t.Run("Should report readiness on readyz without a server", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody)
		engine.ServeHTTP(recorder, request)
		require.Equal(t, http.StatusOK, recorder.Code)
		var body struct {
			Data struct {
				Ready   bool   `json:"ready"`
				Status  string `json:"status"`
				Version string `json:"version"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		require.True(t, body.Data.Ready)
		require.Equal(t, "healthy", body.Data.Status)
		require.Equal(t, version, body.Data.Version)
	})
}
