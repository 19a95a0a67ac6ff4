package size

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps the request body size for the route group. Histories
// with inline upload data can get large; beyond the limit the JSON bind fails
// and the handler responds with a 400 problem. A non-positive limit disables
// the cap.
func BodySizeLimiter(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
