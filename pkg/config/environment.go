package config

import (
	"context"
	"strings"
)

// Runtime environments
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// NormalizeEnvironment trims spaces and lowercases the provided environment string
func NormalizeEnvironment(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EnvironmentFrom reads the runtime environment from the Config in context,
// empty when no config is attached
func EnvironmentFrom(ctx context.Context) string {
	cfg := FromContext(ctx)
	if cfg != nil && cfg.Runtime.Environment != "" {
		return NormalizeEnvironment(cfg.Runtime.Environment)
	}
	return ""
}

// IsDevelopment returns true if the current environment is development
func IsDevelopment(ctx context.Context) bool {
	return EnvironmentFrom(ctx) == EnvDevelopment
}

// IsProduction returns true if the current environment is production
func IsProduction(ctx context.Context) bool {
	return EnvironmentFrom(ctx) == EnvProduction
}
