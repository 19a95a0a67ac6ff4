package routes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutes(t *testing.T) {
	t.Run("Should pin the API surface to the current version", func(t *testing.T) {
		t.Setenv("BRANDLOOM_VERSION", "")
		assert.Equal(t, "v0", Version())
		assert.Equal(t, "/api/v0", Base())
		assert.Equal(t, "/api/v0/resolve", Resolve())
		assert.Equal(t, "/api/v0/context/truncate", ContextTruncate())
		assert.Equal(t, "/api/v0/health", HealthVersioned())
	})

	t.Run("Should honor the version override for pinned deployments", func(t *testing.T) {
		t.Setenv("BRANDLOOM_VERSION", "v1")
		assert.Equal(t, "/api/v1/resolve", Resolve())
	})

	t.Run("Should keep metrics outside the versioned surface", func(t *testing.T) {
		assert.Equal(t, "/metrics", Metrics())
	})

	t.Run("Should compose every versioned path from Base", func(t *testing.T) {
		for _, path := range []string{Resolve(), ContextTruncate(), HealthVersioned()} {
			assert.True(t, strings.HasPrefix(path, Base()+"/"),
				"path %s must extend %s", path, Base())
			assert.NotContains(t, path, "//")
		}
	})
}
