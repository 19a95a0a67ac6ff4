package config

import (
	"reflect"
	"sync"
)

// EnvMapping ties one environment variable to the dotted config path it feeds.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var (
	mappingsOnce   sync.Once
	cachedMappings []EnvMapping
	envByPath      map[string]string
)

// EnvMappings lists every env-tagged field of Config as a variable/path pair.
// Struct tags are fixed at compile time, so the reflective walk runs once and
// both the slice and the path index are cached.
func EnvMappings() []EnvMapping {
	mappingsOnce.Do(buildMappings)
	return cachedMappings
}

// EnvVarForPath returns the environment variable that overrides the given
// config path, or "" when the path has no env binding.
func EnvVarForPath(configPath string) string {
	mappingsOnce.Do(buildMappings)
	return envByPath[configPath]
}

func buildMappings() {
	envByPath = make(map[string]string)
	walkEnvTags(reflect.TypeOf(Config{}), "", func(path, envVar string) {
		cachedMappings = append(cachedMappings, EnvMapping{EnvVar: envVar, ConfigPath: path})
		envByPath[path] = envVar
	})
}

// walkEnvTags visits every exported koanf-tagged field, descending into nested
// config structs. time.Duration and friends are leaves, not sections.
func walkEnvTags(t reflect.Type, prefix string, visit func(path, envVar string)) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("koanf")
		if name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if env := field.Tag.Get("env"); env != "" && env != "-" {
			visit(path, env)
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			walkEnvTags(field.Type, path, visit)
		}
	}
}
