package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config holds the limiter settings: one global rate plus optional per-route
// overrides keyed by path prefix.
type Config struct {
	GlobalRate RateConfig            `yaml:"global_rate"`
	RouteRates map[string]RateConfig `yaml:"route_rates"`

	Prefix   string `yaml:"prefix"`
	MaxRetry int    `yaml:"max_retry"`

	// DisableHeaders suppresses the X-RateLimit-* response headers.
	DisableHeaders bool `yaml:"disable_headers"`

	ExcludedPaths []string `yaml:"excluded_paths"`
	ExcludedIPs   []string `yaml:"excluded_ips"`
}

// RateConfig is one limit window.
type RateConfig struct {
	Period   time.Duration `yaml:"period"`
	Limit    int64         `yaml:"limit"`
	Disabled bool          `yaml:"disabled,omitempty"`
}

// DefaultConfig throttles resolution harder than the rest of the API since it
// runs the full strategy chain per request, and exempts health and metrics
// endpoints.
func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{Limit: 100, Period: time.Minute},
		RouteRates: map[string]RateConfig{
			"/api/v0/resolve": {Limit: 60, Period: time.Minute},
			"/api/v0/context": {Limit: 120, Period: time.Minute},
		},
		Prefix:   "brandloom:ratelimit:",
		MaxRetry: 3,
		ExcludedPaths: []string{
			"/healthz",
			"/readyz",
			"/metrics",
			"/api/v0/health",
		},
		ExcludedIPs: []string{},
	}
}

func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

func (c *Config) Validate() error {
	if c.GlobalRate.Limit <= 0 {
		return fmt.Errorf("global rate limit must be positive")
	}
	for route, rate := range c.RouteRates {
		if rate.Limit <= 0 {
			return fmt.Errorf("route rate limit for %s must be positive", route)
		}
	}
	return nil
}
