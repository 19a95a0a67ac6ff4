package routertest

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/ginmode"
	"github.com/brandloom/brandloom/pkg/logger"
)

// NewTestEngine builds a gin engine in test mode with the request context
// carrying a discard logger and a default configuration manager, mirroring
// what the server middleware stack provides in production.
func NewTestEngine(t *testing.T, sources ...config.Source) *gin.Engine {
	t.Helper()
	ginmode.EnsureGinTestMode()
	manager := NewTestManager(t, sources...)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := logger.ContextWithLogger(c.Request.Context(), logger.NewForTests())
		ctx = config.ContextWithManager(ctx, manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	return r
}

// NewTestManager loads a configuration manager from defaults plus any extra
// sources and closes it when the test ends.
func NewTestManager(t *testing.T, sources ...config.Source) *config.Manager {
	t.Helper()
	manager := config.NewManager(config.NewService())
	providers := append([]config.Source{config.NewDefaultProvider()}, sources...)
	_, err := manager.Load(context.Background(), providers...)
	requireNoError(t, err)
	t.Cleanup(func() { manager.Close(context.Background()) })
	return manager
}

// WithConfig injects a configuration manager into the request context.
func WithConfig(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	manager := config.NewManager(config.NewService())
	_, err := manager.Load(context.Background(), config.NewDefaultProvider())
	requireNoError(t, err)
	ctx := config.ContextWithManager(req.Context(), manager)
	return req.WithContext(ctx)
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
