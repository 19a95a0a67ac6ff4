package definition

import (
	"reflect"
	"time"
)

// Standard type definitions for consistency
var (
	durationType = reflect.TypeOf(time.Duration(0))
	float64Type  = reflect.TypeOf(float64(0))
)

// CreateRegistry creates and populates the configuration registry.
// This is the SINGLE SOURCE OF TRUTH for all configuration defaults.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerServerFields(registry)
	registerResolverFields(registry)
	registerBudgetFields(registry)
	registerRuntimeFields(registry)
	registerMonitoringFields(registry)
	registerRateLimitFields(registry)
	registerCLIFields(registry)
	return registry
}

func registerServerFields(registry *Registry) {
	registerServerCoreFields(registry)
	registerServerCORSFields(registry)
	registerServerTimeoutFields(registry)
}

func registerServerCoreFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.host",
		Default: "0.0.0.0",
		CLIFlag: "host",
		EnvVar:  "SERVER_HOST",
		Type:    reflect.TypeOf(""),
		Help:    "Host to bind the server to",
	})
	registry.Register(&FieldDef{
		Path:    "server.port",
		Default: 5601,
		CLIFlag: "port",
		EnvVar:  "SERVER_PORT",
		Type:    reflect.TypeOf(0),
		Help:    "Port to run the server on",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors_enabled",
		Default: false,
		CLIFlag: "cors",
		EnvVar:  "SERVER_CORS_ENABLED",
		Type:    reflect.TypeOf(true),
		Help:    "Enable CORS middleware",
	})
	registry.Register(&FieldDef{
		Path:    "server.max_body_bytes",
		Default: int64(10 << 20),
		CLIFlag: "",
		EnvVar:  "SERVER_MAX_BODY_BYTES",
		Type:    reflect.TypeOf(int64(0)),
		Help:    "Largest request body accepted by the API, inline upload data included",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeout",
		Default: 30 * time.Second,
		CLIFlag: "timeout",
		EnvVar:  "SERVER_TIMEOUT",
		Type:    durationType,
		Help:    "Request timeout applied to resolve and truncate handlers",
	})
}

func registerServerCORSFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.cors.allowed_origins",
		Default: []string{"http://localhost:3000"},
		CLIFlag: "",
		EnvVar:  "SERVER_CORS_ALLOWED_ORIGINS",
		Type:    reflect.TypeOf([]string{}),
		Help:    "Origins allowed to call the API from a browser",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.allow_credentials",
		Default: true,
		CLIFlag: "",
		EnvVar:  "SERVER_CORS_ALLOW_CREDENTIALS",
		Type:    reflect.TypeOf(true),
		Help:    "Allow cookies and auth headers in cross-origin requests",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors.max_age",
		Default: 86400,
		CLIFlag: "",
		EnvVar:  "SERVER_CORS_MAX_AGE",
		Type:    reflect.TypeOf(0),
		Help:    "Preflight cache duration in seconds",
	})
}

func registerServerTimeoutFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.timeouts.http_read",
		Default: 15 * time.Second,
		CLIFlag: "",
		EnvVar:  "SERVER_TIMEOUT_HTTP_READ",
		Type:    durationType,
		Help:    "Maximum duration for reading the entire request",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeouts.http_write",
		Default: 30 * time.Second,
		CLIFlag: "",
		EnvVar:  "SERVER_TIMEOUT_HTTP_WRITE",
		Type:    durationType,
		Help:    "Maximum duration before timing out response writes",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeouts.http_idle",
		Default: 120 * time.Second,
		CLIFlag: "",
		EnvVar:  "SERVER_TIMEOUT_HTTP_IDLE",
		Type:    durationType,
		Help:    "Maximum time to wait for the next request on a keep-alive connection",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeouts.server_shutdown",
		Default: 10 * time.Second,
		CLIFlag: "",
		EnvVar:  "SERVER_TIMEOUT_SHUTDOWN",
		Type:    durationType,
		Help:    "Grace period for draining in-flight requests on shutdown",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeouts.monitoring_init",
		Default: 5 * time.Second,
		CLIFlag: "",
		EnvVar:  "SERVER_TIMEOUT_MONITORING_INIT",
		Type:    durationType,
		Help:    "Timeout for initializing the metrics exporter",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeouts.monitoring_shutdown",
		Default: 5 * time.Second,
		CLIFlag: "",
		EnvVar:  "SERVER_TIMEOUT_MONITORING_SHUTDOWN",
		Type:    durationType,
		Help:    "Timeout for flushing the metrics exporter on shutdown",
	})
}

func registerResolverFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "resolver.new_upload_confidence",
		Default: 0.9,
		CLIFlag: "",
		EnvVar:  "RESOLVER_NEW_UPLOAD_CONFIDENCE",
		Type:    float64Type,
		Help:    "Confidence assigned when the turn's fresh uploads are the referent",
	})
	registry.Register(&FieldDef{
		Path:    "resolver.semantic_confidence_cap",
		Default: 0.85,
		CLIFlag: "",
		EnvVar:  "RESOLVER_SEMANTIC_CONFIDENCE_CAP",
		Type:    float64Type,
		Help:    "Upper bound on confidence derived from filename tag overlap",
	})
	registry.Register(&FieldDef{
		Path:    "resolver.most_recent_confidence",
		Default: 0.6,
		CLIFlag: "",
		EnvVar:  "RESOLVER_MOST_RECENT_CONFIDENCE",
		Type:    float64Type,
		Help:    "Confidence assigned to recency-based fallback matches",
	})
	registry.Register(&FieldDef{
		Path:    "resolver.disambiguation_threshold",
		Default: 0.5,
		CLIFlag: "",
		EnvVar:  "RESOLVER_DISAMBIGUATION_THRESHOLD",
		Type:    float64Type,
		Help:    "Resolutions below this confidence ask the user to clarify",
	})
	registry.Register(&FieldDef{
		Path:    "resolver.min_tag_overlap",
		Default: 1,
		CLIFlag: "",
		EnvVar:  "RESOLVER_MIN_TAG_OVERLAP",
		Type:    reflect.TypeOf(0),
		Help:    "Minimum shared filename tokens for a semantic match",
	})
	registry.Register(&FieldDef{
		Path:    "resolver.max_options",
		Default: 5,
		CLIFlag: "",
		EnvVar:  "RESOLVER_MAX_OPTIONS",
		Type:    reflect.TypeOf(0),
		Help:    "Maximum number of candidates offered in a clarification prompt",
	})
}

func registerBudgetFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "budget.strategy",
		Default: "default",
		CLIFlag: "",
		EnvVar:  "BUDGET_STRATEGY",
		Type:    reflect.TypeOf(""),
		Help:    "Token estimation strategy: default|unicode_aware|chinese|conservative",
	})
	registry.Register(&FieldDef{
		Path:    "budget.chars_per_token",
		Default: 4,
		CLIFlag: "",
		EnvVar:  "BUDGET_CHARS_PER_TOKEN",
		Type:    reflect.TypeOf(0),
		Help:    "Characters per token assumed by the default estimation strategy",
	})
	registry.Register(&FieldDef{
		Path:    "budget.attachment_tokens",
		Default: 256,
		CLIFlag: "",
		EnvVar:  "BUDGET_ATTACHMENT_TOKENS",
		Type:    reflect.TypeOf(0),
		Help:    "Flat token surcharge applied per message attachment",
	})
	registry.Register(&FieldDef{
		Path:    "budget.aggressive_factor",
		Default: 0.6,
		CLIFlag: "",
		EnvVar:  "BUDGET_AGGRESSIVE_FACTOR",
		Type:    float64Type,
		Help:    "Budget fraction kept for history when the turn carries new media",
	})
	registry.Register(&FieldDef{
		Path:    "budget.default_token_limit",
		Default: 8192,
		CLIFlag: "",
		EnvVar:  "BUDGET_DEFAULT_TOKEN_LIMIT",
		Type:    reflect.TypeOf(0),
		Help:    "Token budget used when a request does not specify one",
	})
	registry.Register(&FieldDef{
		Path:    "budget.use_tokenizer",
		Default: false,
		CLIFlag: "",
		EnvVar:  "BUDGET_USE_TOKENIZER",
		Type:    reflect.TypeOf(true),
		Help:    "Count tokens with a real tokenizer instead of estimating",
	})
	registry.Register(&FieldDef{
		Path:    "budget.encoding",
		Default: "cl100k_base",
		CLIFlag: "",
		EnvVar:  "BUDGET_ENCODING",
		Type:    reflect.TypeOf(""),
		Help:    "Tokenizer encoding used when use_tokenizer is enabled",
	})
}

func registerRuntimeFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "runtime.environment",
		Default: "development",
		CLIFlag: "env",
		EnvVar:  "RUNTIME_ENVIRONMENT",
		Type:    reflect.TypeOf(""),
		Help:    "Runtime environment: development|staging|production",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_level",
		Default: "info",
		CLIFlag: "log-level",
		EnvVar:  "RUNTIME_LOG_LEVEL",
		Type:    reflect.TypeOf(""),
		Help:    "Logging level: debug|info|warn|error|disabled",
	})
}

func registerMonitoringFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "monitoring.enabled",
		Default: false,
		CLIFlag: "monitoring",
		EnvVar:  "MONITORING_ENABLED",
		Type:    reflect.TypeOf(true),
		Help:    "Expose Prometheus metrics",
	})
	registry.Register(&FieldDef{
		Path:    "monitoring.path",
		Default: "/metrics",
		CLIFlag: "",
		EnvVar:  "MONITORING_PATH",
		Type:    reflect.TypeOf(""),
		Help:    "HTTP path where metrics are served",
	})
}

func registerRateLimitFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "ratelimit.global_rate.limit",
		Default: int64(0),
		CLIFlag: "",
		EnvVar:  "RATELIMIT_GLOBAL_RATE_LIMIT",
		Type:    reflect.TypeOf(int64(0)),
		Help:    "Requests allowed per client per period, zero disables throttling",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.global_rate.period",
		Default: 1 * time.Minute,
		CLIFlag: "",
		EnvVar:  "RATELIMIT_GLOBAL_RATE_PERIOD",
		Type:    durationType,
		Help:    "Window over which the global rate limit applies",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.prefix",
		Default: "brandloom:ratelimit:",
		CLIFlag: "",
		EnvVar:  "RATELIMIT_PREFIX",
		Type:    reflect.TypeOf(""),
		Help:    "Key prefix for rate limit counters",
	})
	registry.Register(&FieldDef{
		Path:    "ratelimit.max_retry",
		Default: 3,
		CLIFlag: "",
		EnvVar:  "RATELIMIT_MAX_RETRY",
		Type:    reflect.TypeOf(0),
		Help:    "Store retries under concurrent counter updates",
	})
}

func registerCLIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "cli.config_file",
		Default: "",
		CLIFlag: "config",
		EnvVar:  "BRANDLOOM_CONFIG_FILE",
		Type:    reflect.TypeOf(""),
		Help:    "Path to a YAML configuration file",
	})
	registry.Register(&FieldDef{
		Path:    "cli.env_file",
		Default: "",
		CLIFlag: "env-file",
		EnvVar:  "BRANDLOOM_ENV_FILE",
		Type:    reflect.TypeOf(""),
		Help:    "Path to a dotenv file loaded before configuration",
	})
	registry.Register(&FieldDef{
		Path:    "cli.debug",
		Default: false,
		CLIFlag: "debug",
		EnvVar:  "BRANDLOOM_DEBUG",
		Type:    reflect.TypeOf(true),
		Help:    "Enable debug output",
	})
}
