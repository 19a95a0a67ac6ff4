package logger

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
)

// Middleware propagates the server's logger and configuration manager onto
// each request context and logs request completion. Handlers downstream rely
// on logger.FromContext and config.FromContext against the request context.
func Middleware(ctx context.Context) gin.HandlerFunc {
	log := logger.FromContext(ctx)
	manager := config.ManagerFromContext(ctx)
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		reqCtx := logger.ContextWithLogger(c.Request.Context(), log)
		if manager != nil {
			reqCtx = config.ContextWithManager(reqCtx, manager)
		}
		c.Request = c.Request.WithContext(reqCtx)
		c.Next()
		if raw != "" {
			path = path + "?" + raw
		}
		log.Info("Request completed",
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"status_code", c.Writer.Status(),
			"body_size", c.Writer.Size(),
			"path", path,
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
