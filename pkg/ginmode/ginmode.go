package ginmode

import (
	"sync"

	"github.com/gin-gonic/gin"
)

var once sync.Once

// EnsureGinTestMode switches gin into test mode exactly once so test packages
// sharing the process do not race on the global mode flag.
func EnsureGinTestMode() {
	once.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}
