package core

import "os"

// GetVersion returns the API version segment used in route paths. The
// environment override exists for blue/green deployments that pin clients to
// a versioned prefix.
func GetVersion() string {
	if version := os.Getenv("BRANDLOOM_VERSION"); version != "" {
		return version
	}
	return "v0"
}
