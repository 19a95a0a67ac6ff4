package requestid

import (
	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/engine/core"
)

const Header = "X-Request-ID"

// Middleware tags every request with a stable ID for log correlation. An
// inbound X-Correlation-ID or X-Request-ID wins so callers can trace requests
// across systems; otherwise a fresh K-sortable ID is generated.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get("X-Correlation-ID")
		if id == "" {
			id = c.Request.Header.Get(Header)
		}
		if id == "" {
			id = core.MustNewID().String()
		}
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}
