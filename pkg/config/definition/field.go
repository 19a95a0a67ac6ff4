package definition

import (
	"maps"
	"reflect"
)

// FieldDef describes a single configuration field: where it lives in the
// config tree, its default, and how it is exposed to flags and env vars.
type FieldDef struct {
	Path      string       // Config path like "server.port"
	Default   any          // Default value
	CLIFlag   string       // CLI flag name like "port", empty when not flag-exposed
	Shorthand string       // Single character shorthand like "p"
	EnvVar    string       // Environment variable name like "SERVER_PORT"
	Type      reflect.Type // Field type for validation
	Help      string       // Help text for CLI
}

// Registry holds all configuration field definitions keyed by path.
type Registry struct {
	fields map[string]FieldDef
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]FieldDef)}
}

func (r *Registry) Register(field *FieldDef) {
	r.fields[field.Path] = *field
}

func (r *Registry) GetField(path string) (FieldDef, bool) {
	field, exists := r.fields[path]
	return field, exists
}

// GetDefault returns the default value for a field path, or nil when the
// path is not registered.
func (r *Registry) GetDefault(path string) any {
	if field, exists := r.fields[path]; exists {
		return field.Default
	}
	return nil
}

// GetAllFields returns a copy of all registered fields.
func (r *Registry) GetAllFields() map[string]FieldDef {
	return maps.Clone(r.fields)
}

// GetCLIFlagMapping returns flag name to config path for every field that
// exposes a flag.
func (r *Registry) GetCLIFlagMapping() map[string]string {
	mapping := make(map[string]string)
	for path, field := range r.fields {
		if field.CLIFlag != "" {
			mapping[field.CLIFlag] = path
		}
	}
	return mapping
}
