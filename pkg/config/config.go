package config

import (
	"context"
	"time"

	"github.com/brandloom/brandloom/pkg/config/definition"
)

// Config represents the complete configuration for the Brandloom system.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Resolver   ResolverConfig   `koanf:"resolver"   validate:"required"`
	Budget     BudgetConfig     `koanf:"budget"     validate:"required"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	CLI        CLIConfig        `koanf:"cli"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host         string        `koanf:"host"           validate:"required"        env:"SERVER_HOST"`
	Port         int           `koanf:"port"           validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled  bool          `koanf:"cors_enabled"                              env:"SERVER_CORS_ENABLED"`
	CORS         CORSConfig    `koanf:"cors"`
	MaxBodyBytes int64         `koanf:"max_body_bytes" validate:"min=1"           env:"SERVER_MAX_BODY_BYTES"`
	Timeout      time.Duration `koanf:"timeout"                                   env:"SERVER_TIMEOUT"`
	Timeouts     TimeoutConfig `koanf:"timeouts"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// TimeoutConfig groups the HTTP and lifecycle timeouts for the server.
type TimeoutConfig struct {
	HTTPRead           time.Duration `koanf:"http_read"           env:"SERVER_TIMEOUT_HTTP_READ"`
	HTTPWrite          time.Duration `koanf:"http_write"          env:"SERVER_TIMEOUT_HTTP_WRITE"`
	HTTPIdle           time.Duration `koanf:"http_idle"           env:"SERVER_TIMEOUT_HTTP_IDLE"`
	ServerShutdown     time.Duration `koanf:"server_shutdown"     env:"SERVER_TIMEOUT_SHUTDOWN"`
	MonitoringInit     time.Duration `koanf:"monitoring_init"     env:"SERVER_TIMEOUT_MONITORING_INIT"`
	MonitoringShutdown time.Duration `koanf:"monitoring_shutdown" env:"SERVER_TIMEOUT_MONITORING_SHUTDOWN"`
}

// ResolverConfig tunes how media references in an utterance are matched
// against the conversation's media registry.
type ResolverConfig struct {
	NewUploadConfidence     float64 `koanf:"new_upload_confidence"    validate:"min=0,max=1" env:"RESOLVER_NEW_UPLOAD_CONFIDENCE"`
	SemanticConfidenceCap   float64 `koanf:"semantic_confidence_cap"  validate:"min=0,max=1" env:"RESOLVER_SEMANTIC_CONFIDENCE_CAP"`
	MostRecentConfidence    float64 `koanf:"most_recent_confidence"   validate:"min=0,max=1" env:"RESOLVER_MOST_RECENT_CONFIDENCE"`
	DisambiguationThreshold float64 `koanf:"disambiguation_threshold" validate:"min=0,max=1" env:"RESOLVER_DISAMBIGUATION_THRESHOLD"`
	MinTagOverlap           int     `koanf:"min_tag_overlap"          validate:"min=1"       env:"RESOLVER_MIN_TAG_OVERLAP"`
	MaxOptions              int     `koanf:"max_options"              validate:"min=1"       env:"RESOLVER_MAX_OPTIONS"`
}

// BudgetConfig tunes token estimation and history truncation.
type BudgetConfig struct {
	Strategy          string  `koanf:"strategy"            validate:"oneof=default unicode_aware chinese conservative" env:"BUDGET_STRATEGY"`
	CharsPerToken     int     `koanf:"chars_per_token"     validate:"min=1"                                    env:"BUDGET_CHARS_PER_TOKEN"`
	AttachmentTokens  int     `koanf:"attachment_tokens"   validate:"min=0"                                    env:"BUDGET_ATTACHMENT_TOKENS"`
	AggressiveFactor  float64 `koanf:"aggressive_factor"   validate:"gt=0,max=1"                               env:"BUDGET_AGGRESSIVE_FACTOR"`
	DefaultTokenLimit int     `koanf:"default_token_limit" validate:"min=1"                                    env:"BUDGET_DEFAULT_TOKEN_LIMIT"`
	UseTokenizer      bool    `koanf:"use_tokenizer"                                                           env:"BUDGET_USE_TOKENIZER"`
	Encoding          string  `koanf:"encoding"            validate:"omitempty,encoding_name"                  env:"BUDGET_ENCODING"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production"      env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error disabled"      env:"RUNTIME_LOG_LEVEL"`
}

// MonitoringConfig controls the Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// RateLimitConfig controls request throttling on the API surface.
// A zero global limit disables rate limiting entirely.
type RateLimitConfig struct {
	GlobalRate RateSpec `koanf:"global_rate"`
	Prefix     string   `koanf:"prefix"      env:"RATELIMIT_PREFIX"`
	MaxRetry   int      `koanf:"max_retry"   env:"RATELIMIT_MAX_RETRY"`
}

// RateSpec is one rate bucket: at most Limit requests per Period.
type RateSpec struct {
	Limit  int64         `koanf:"limit"  env:"RATELIMIT_GLOBAL_RATE_LIMIT"`
	Period time.Duration `koanf:"period" env:"RATELIMIT_GLOBAL_RATE_PERIOD"`
}

// CLIConfig carries the flags shared by every command invocation.
type CLIConfig struct {
	ConfigFile string `koanf:"config_file" env:"BRANDLOOM_CONFIG_FILE"`
	EnvFile    string `koanf:"env_file"    env:"BRANDLOOM_ENV_FILE"`
	Debug      bool   `koanf:"debug"       env:"BRANDLOOM_DEBUG"`
}

// Service loads, validates and watches configuration.
type Service interface {
	// Load layers the sources in precedence order and returns the result.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Watch registers a callback invoked on configuration updates.
	Watch(ctx context.Context, callback func(*Config)) error
	// Validate checks the configuration against all validation rules.
	Validate(config *Config) error
	// GetSource reports which layer (env, CLI, YAML, default) supplied a key,
	// for debugging and precedence verification.
	GetSource(key string) SourceType
}

// Source is one configuration layer.
type Source interface {
	Load() (map[string]any, error)
	Watch(ctx context.Context, callback func()) error
	Type() SourceType
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration using the default service.
// This is a convenience function for simple configuration loading.
func Load() (*Config, error) {
	service := NewService()
	return service.Load(context.Background())
}

// defaultAs reads a registry default, falling back to the zero value when the
// path is unregistered or carries a different type.
func defaultAs[T any](registry *definition.Registry, path string) T {
	if val, ok := registry.GetDefault(path).(T); ok {
		return val
	}
	var zero T
	return zero
}

// Default materializes the registry's declared defaults into a Config. The
// registry is the single place the schema lives; this keeps Default in sync
// with it by construction.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		Server: ServerConfig{
			Host:        defaultAs[string](registry, "server.host"),
			Port:        defaultAs[int](registry, "server.port"),
			CORSEnabled: defaultAs[bool](registry, "server.cors_enabled"),
			CORS: CORSConfig{
				AllowedOrigins:   defaultAs[[]string](registry, "server.cors.allowed_origins"),
				AllowCredentials: defaultAs[bool](registry, "server.cors.allow_credentials"),
				MaxAge:           defaultAs[int](registry, "server.cors.max_age"),
			},
			MaxBodyBytes: defaultAs[int64](registry, "server.max_body_bytes"),
			Timeout:      defaultAs[time.Duration](registry, "server.timeout"),
			Timeouts: TimeoutConfig{
				HTTPRead:           defaultAs[time.Duration](registry, "server.timeouts.http_read"),
				HTTPWrite:          defaultAs[time.Duration](registry, "server.timeouts.http_write"),
				HTTPIdle:           defaultAs[time.Duration](registry, "server.timeouts.http_idle"),
				ServerShutdown:     defaultAs[time.Duration](registry, "server.timeouts.server_shutdown"),
				MonitoringInit:     defaultAs[time.Duration](registry, "server.timeouts.monitoring_init"),
				MonitoringShutdown: defaultAs[time.Duration](registry, "server.timeouts.monitoring_shutdown"),
			},
		},
		Resolver: ResolverConfig{
			NewUploadConfidence:     defaultAs[float64](registry, "resolver.new_upload_confidence"),
			SemanticConfidenceCap:   defaultAs[float64](registry, "resolver.semantic_confidence_cap"),
			MostRecentConfidence:    defaultAs[float64](registry, "resolver.most_recent_confidence"),
			DisambiguationThreshold: defaultAs[float64](registry, "resolver.disambiguation_threshold"),
			MinTagOverlap:           defaultAs[int](registry, "resolver.min_tag_overlap"),
			MaxOptions:              defaultAs[int](registry, "resolver.max_options"),
		},
		Budget: BudgetConfig{
			Strategy:          defaultAs[string](registry, "budget.strategy"),
			CharsPerToken:     defaultAs[int](registry, "budget.chars_per_token"),
			AttachmentTokens:  defaultAs[int](registry, "budget.attachment_tokens"),
			AggressiveFactor:  defaultAs[float64](registry, "budget.aggressive_factor"),
			DefaultTokenLimit: defaultAs[int](registry, "budget.default_token_limit"),
			UseTokenizer:      defaultAs[bool](registry, "budget.use_tokenizer"),
			Encoding:          defaultAs[string](registry, "budget.encoding"),
		},
		Runtime: RuntimeConfig{
			Environment: defaultAs[string](registry, "runtime.environment"),
			LogLevel:    defaultAs[string](registry, "runtime.log_level"),
		},
		Monitoring: MonitoringConfig{
			Enabled: defaultAs[bool](registry, "monitoring.enabled"),
			Path:    defaultAs[string](registry, "monitoring.path"),
		},
		RateLimit: RateLimitConfig{
			GlobalRate: RateSpec{
				Limit:  defaultAs[int64](registry, "ratelimit.global_rate.limit"),
				Period: defaultAs[time.Duration](registry, "ratelimit.global_rate.period"),
			},
			Prefix:   defaultAs[string](registry, "ratelimit.prefix"),
			MaxRetry: defaultAs[int](registry, "ratelimit.max_retry"),
		},
		CLI: CLIConfig{
			ConfigFile: defaultAs[string](registry, "cli.config_file"),
			EnvFile:    defaultAs[string](registry, "cli.env_file"),
			Debug:      defaultAs[bool](registry, "cli.debug"),
		},
	}
}
