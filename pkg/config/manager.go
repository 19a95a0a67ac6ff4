package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brandloom/brandloom/pkg/logger"
)

// Manager owns the live configuration: it loads from sources, republishes
// atomically on hot-reload, and fans change notifications out to subscribers
// like the server and the resolver use cases.
type Manager struct {
	Service Service

	current atomic.Value // *Config

	mu      sync.Mutex // guards sources and reloads
	sources []Source

	onChangeMu sync.RWMutex
	onChange   []func(*Config)

	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
	closeOnce   sync.Once
	debounce    time.Duration
}

// NewManager creates a manager around the given service. A nil service gets
// the default loader.
func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:  service,
		debounce: 100 * time.Millisecond,
	}
}

// SetDebounce adjusts the file-watch debounce. Call before Load.
func (m *Manager) SetDebounce(duration time.Duration) {
	m.debounce = duration
}

// Load reads configuration from the sources and starts watching the ones that
// support it. The source list is retained for later Reload calls.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.mu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.mu.Unlock()

	config, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.publish(config)

	// Watchers must outlive the Load call, so they run on a non-canceling
	// derivative of the caller's context.
	if ctx != nil {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.watchCtx, m.watchCancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	for _, source := range sources {
		if source != nil {
			m.watchSource(source)
		}
	}
	return config, nil
}

// Get returns the current configuration, or nil before the first Load.
func (m *Manager) Get() *Config {
	config, _ := m.current.Load().(*Config)
	return config
}

// Sources returns a copy of the configured sources.
func (m *Manager) Sources() []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Source(nil), m.sources...)
}

// Reload re-reads all sources and swaps in the result. The old configuration
// stays active when the new one fails validation.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	if err := m.Service.Validate(next); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	m.publish(next)
	return nil
}

// OnChange registers a callback invoked whenever a reload produces a
// different configuration.
func (m *Manager) OnChange(callback func(*Config)) {
	m.onChangeMu.Lock()
	defer m.onChangeMu.Unlock()
	m.onChange = append(m.onChange, callback)
}

// Close stops all watchers and closes the sources. Safe to call more than
// once.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.watchWg.Wait()

		for _, source := range m.Sources() {
			if source == nil {
				continue
			}
			if err := source.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}

// watchSource runs the source's watch loop in the background, reloading after
// a debounce window. Editors write files in bursts; waiting lets the dust
// settle before re-reading.
func (m *Manager) watchSource(src Source) {
	m.watchWg.Add(1)
	go func() {
		defer m.watchWg.Done()
		ctx := m.watchCtx
		if ctx == nil {
			ctx = context.Background()
		}
		err := src.Watch(ctx, func() {
			if m.debounce > 0 {
				time.Sleep(m.debounce)
			}
			if err := m.Reload(ctx); err != nil {
				logger.FromContext(ctx).Error("failed to reload configuration", "error", err)
			}
		})
		if err != nil {
			logger.FromContext(ctx).Debug("source does not support watching", "error", err)
		}
	}()
}

// publish swaps in the new configuration and notifies subscribers, skipping
// the callbacks when nothing actually changed.
func (m *Manager) publish(config *Config) {
	old := m.Get()
	m.current.Store(config)
	if old != nil && configEqual(old, config) {
		return
	}

	m.onChangeMu.RLock()
	callbacks := append(([]func(*Config))(nil), m.onChange...)
	m.onChangeMu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback(config)
		}
	}
}

// configEqual reports whether two configurations are functionally identical.
func configEqual(a, b *Config) bool {
	return reflect.DeepEqual(a, b)
}
