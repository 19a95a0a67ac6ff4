package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel/metric"
)

const scopeGlobal = "global"

// Manager owns the limiter store and the per-scope limiter instances.
type Manager struct {
	config *Config
	store  limiter.Store
	global *limiter.Limiter
	routes map[string]*limiter.Limiter
}

// NewManager builds a manager backed by an in-memory store.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	store := memorystore.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          cfg.Prefix,
		MaxRetry:        cfg.MaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
	m := &Manager{
		config: cfg,
		store:  store,
		global: limiter.New(store, cfg.GlobalRate.ToLimiterRate()),
		routes: make(map[string]*limiter.Limiter, len(cfg.RouteRates)),
	}
	for route, rate := range cfg.RouteRates {
		if rate.Disabled {
			continue
		}
		m.routes[route] = limiter.New(store, rate.ToLimiterRate())
	}
	return m, nil
}

// NewManagerWithMetrics builds a manager and registers the blocked-request
// counter on the given meter.
func NewManagerWithMetrics(ctx context.Context, cfg *Config, meter metric.Meter) (*Manager, error) {
	m, err := NewManager(cfg)
	if err != nil {
		return nil, err
	}
	if meter != nil {
		if err := InitMetrics(meter); err != nil {
			logger.FromContext(ctx).Warn("Failed to initialize rate limit metrics", "error", err)
		}
	}
	return m, nil
}

// Middleware returns the gin handler enforcing the configured limits.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if m.isExcludedPath(path) || m.isExcludedIP(c.ClientIP()) {
			c.Next()
			return
		}
		scope, lim := m.limiterForPath(path)
		key := scope + ":" + c.ClientIP()
		lctx, err := lim.Get(c.Request.Context(), key)
		if err != nil {
			// Fail open so a broken store never takes the API down
			logger.FromContext(c.Request.Context()).Error("Rate limit check failed", "error", err, "path", path)
			c.Next()
			return
		}
		if !m.config.DisableHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		}
		if lctx.Reached {
			IncrementBlockedRequests(c.Request.Context(), scope, "ip")
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "too many requests, retry later",
			})
			return
		}
		c.Next()
	}
}

// limiterForPath picks the longest matching route limiter, falling back to the
// global one.
func (m *Manager) limiterForPath(path string) (string, *limiter.Limiter) {
	scope := scopeGlobal
	lim := m.global
	best := 0
	for route, routeLim := range m.routes {
		if strings.HasPrefix(path, route) && len(route) > best {
			scope = route
			lim = routeLim
			best = len(route)
		}
	}
	return scope, lim
}

func (m *Manager) isExcludedPath(path string) bool {
	for _, excluded := range m.config.ExcludedPaths {
		if strings.HasPrefix(path, excluded) {
			return true
		}
	}
	return false
}

func (m *Manager) isExcludedIP(ip string) bool {
	for _, excluded := range m.config.ExcludedIPs {
		if ip == excluded {
			return true
		}
	}
	return false
}
