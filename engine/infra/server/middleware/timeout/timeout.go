package timeout

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/engine/infra/server/router"
)

// Middleware bounds request handling with the configured deadline so slow
// resolutions cannot pin server workers. Handlers receive the deadline via
// the request context; when it expires before a response was written, a
// RequestError is attached for the error handler to turn into the 408
// envelope. A non-positive limit disables the bound.
func Middleware(limit time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), limit)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			reqErr := router.NewRequestError(http.StatusRequestTimeout, "request timed out", ctx.Err())
			_ = c.Error(reqErr)
		}
	}
}
