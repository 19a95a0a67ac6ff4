package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRouterForTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/t", func(c *gin.Context) { c.String(200, "ok") })
	return r
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("Should honor inbound correlation ID", func(t *testing.T) {
		r := buildRouterForTest()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/t", http.NoBody)
		req.Header.Set("X-Correlation-ID", "corr-123")
		r.ServeHTTP(w, req)
		assert.Equal(t, "corr-123", w.Header().Get(Header))
	})
	t.Run("Should honor inbound request ID when no correlation ID", func(t *testing.T) {
		r := buildRouterForTest()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/t", http.NoBody)
		req.Header.Set(Header, "req-456")
		r.ServeHTTP(w, req)
		assert.Equal(t, "req-456", w.Header().Get(Header))
	})
	t.Run("Should prefer correlation ID over request ID", func(t *testing.T) {
		r := buildRouterForTest()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/t", http.NoBody)
		req.Header.Set("X-Correlation-ID", "corr-123")
		req.Header.Set(Header, "req-456")
		r.ServeHTTP(w, req)
		assert.Equal(t, "corr-123", w.Header().Get(Header))
	})
	t.Run("Should generate a fresh ID when none provided", func(t *testing.T) {
		r := buildRouterForTest()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/t", http.NoBody)
		r.ServeHTTP(w, req)
		id := w.Header().Get(Header)
		require.NotEmpty(t, id)
		_, err := ksuid.Parse(id)
		assert.NoError(t, err)
	})
}
