package config

import (
	"context"
	"sync"

	"github.com/brandloom/brandloom/pkg/logger"
)

type contextKey string

// managerCtxKey carries the *Manager through request and command contexts.
const managerCtxKey contextKey = "config_manager"

var (
	fallbackManager *Manager
	fallbackOnce    sync.Once
)

// ContextWithManager attaches the configuration manager to the context.
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey, m)
}

// ManagerFromContext returns the manager attached to the context. When none
// was attached it falls back to a lazily built manager loaded from defaults
// and environment variables only, so callers always get something usable.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, ok := ctx.Value(managerCtxKey).(*Manager); ok && m != nil {
			return m
		}
	}
	fallbackOnce.Do(func() {
		m := NewManager(NewService())
		if _, err := m.Load(ctx, NewDefaultProvider(), NewEnvProvider()); err != nil {
			logger.FromContext(ctx).Warn(
				"failed to load default configuration, using fallback defaults",
				"error", err,
			)
		}
		fallbackManager = m
	})
	return fallbackManager
}

// FromContext returns the active configuration for the provided context.
func FromContext(ctx context.Context) *Config {
	m := ManagerFromContext(ctx)
	if m == nil {
		return nil
	}
	return m.Get()
}
