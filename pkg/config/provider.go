package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/brandloom/brandloom/pkg/config/definition"
	"gopkg.in/yaml.v3"
)

// envProvider marks the process environment as a source in precedence order.
// The loader layers env vars itself through koanf's native provider, so Load
// returns nothing here.
type envProvider struct{}

// NewEnvProvider creates an environment variable configuration source.
func NewEnvProvider() Source {
	return &envProvider{}
}

func (e *envProvider) Load() (map[string]any, error) {
	return make(map[string]any), nil
}

// Watch is a no-op: the process environment does not change at runtime.
func (e *envProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (e *envProvider) Type() SourceType {
	return SourceEnv
}

func (e *envProvider) Close() error {
	return nil
}

// cliProvider maps parsed command flags onto config paths via the registry's
// flag bindings. Flags without a registry binding are ignored.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider creates a configuration source from parsed CLI flags.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{flags: flags}
}

func (c *cliProvider) Load() (map[string]any, error) {
	if c.flags == nil {
		return make(map[string]any), nil
	}
	flagToPath := definition.CreateRegistry().GetCLIFlagMapping()
	out := make(map[string]any)
	for flag, value := range c.flags {
		path, ok := flagToPath[flag]
		if !ok {
			continue
		}
		if err := setNested(out, path, value); err != nil {
			return nil, fmt.Errorf("failed to set CLI flag %s: %w", flag, err)
		}
	}
	return out, nil
}

// Watch is a no-op: flags are fixed once the command line is parsed.
func (c *cliProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

func (c *cliProvider) Close() error {
	return nil
}

// setNested writes a value into a nested map under a dot-notation path,
// creating intermediate maps as needed. A scalar already sitting on an
// intermediate segment is a conflict.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

// yamlProvider reads a YAML config file and, via Watch, hot-reloads it.
type yamlProvider struct {
	path      string
	watcher   *Watcher
	watcherMu sync.Mutex
	watchOnce sync.Once
	closeOnce sync.Once
}

// NewYAMLProvider creates a YAML file configuration source. A missing file is
// not an error, it just contributes nothing.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	// Keys with explicit nulls would otherwise clobber defaults with nil.
	return filterNilValues(raw), nil
}

func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if filtered := filterNilValues(nested); len(filtered) > 0 {
				result[k] = filtered
			}
			continue
		}
		result[k] = v
	}
	return result
}

// Watch starts the file watcher on first call and registers the callback.
// Later calls only add callbacks to the already-running watcher.
func (y *yamlProvider) Watch(ctx context.Context, callback func()) error {
	var watchErr error
	y.watchOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()

		watcher, err := NewWatcher()
		if err != nil {
			watchErr = fmt.Errorf("failed to create watcher: %w", err)
			return
		}
		if err := watcher.Watch(ctx, y.path); err != nil {
			watchErr = fmt.Errorf("failed to watch YAML file: %w", err)
			return
		}
		y.watcher = watcher
	})
	if watchErr != nil {
		return watchErr
	}
	y.watcherMu.Lock()
	defer y.watcherMu.Unlock()
	if y.watcher != nil {
		y.watcher.OnChange(callback)
	}
	return nil
}

func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

func (y *yamlProvider) Close() error {
	var closeErr error
	y.closeOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()

		if y.watcher != nil {
			if err := y.watcher.Close(); err != nil {
				closeErr = fmt.Errorf("failed to close watcher: %w", err)
				return
			}
			y.watcher = nil
		}
		y.watchOnce = sync.Once{}
	})
	return closeErr
}

// defaultProvider serves the registry defaults as the lowest-precedence layer.
type defaultProvider struct {
	defaults map[string]any
}

// NewDefaultProvider creates a configuration source holding every registry
// default.
func NewDefaultProvider() Source {
	return &defaultProvider{defaults: createDefaultMap()}
}

func (d *defaultProvider) Load() (map[string]any, error) {
	return d.defaults, nil
}

// Watch is a no-op: defaults are compiled in.
func (d *defaultProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (d *defaultProvider) Type() SourceType {
	return SourceDefault
}

func (d *defaultProvider) Close() error {
	return nil
}

// createDefaultMap renders the field registry as a nested map, the same shape
// a YAML file would produce. Durations become strings so every layer feeds the
// duration decode hook the same way.
func createDefaultMap() map[string]any {
	registry := definition.CreateRegistry()
	out := make(map[string]any)
	for path, field := range registry.GetAllFields() {
		value := field.Default
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		if err := setNested(out, path, value); err != nil {
			// Registry paths never conflict with each other.
			continue
		}
	}
	return out
}
