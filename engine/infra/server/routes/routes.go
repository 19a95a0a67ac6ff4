package routes

import (
	"fmt"

	"github.com/brandloom/brandloom/engine/core"
)

// Version returns the current API version string used in routing (e.g., "v0").
func Version() string {
	return core.GetVersion()
}

// Base returns the versioned API base path (e.g., "/api/v0").
func Base() string {
	return fmt.Sprintf("/api/%s", Version())
}

// Resolve returns the media reference resolution path (e.g., "/api/v0/resolve").
func Resolve() string {
	return Base() + "/resolve"
}

// ContextTruncate returns the standalone truncation path
// (e.g., "/api/v0/context/truncate").
func ContextTruncate() string {
	return Base() + "/context/truncate"
}

// HealthVersioned returns the versioned health path (e.g., "/api/v0/health").
// The primary health endpoint is versioned and mounted under the API base path.
func HealthVersioned() string {
	return Base() + "/health"
}

// Metrics returns the unversioned Prometheus scrape path.
func Metrics() string {
	return "/metrics"
}
