package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefault(t *testing.T) {
	t.Run("Should return valid default configuration", func(t *testing.T) {
		cfg := Default()
		require.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 5601, cfg.Server.Port)
		assert.False(t, cfg.Server.CORSEnabled)
		assert.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 15*time.Second, cfg.Server.Timeouts.HTTPRead)
		assert.Equal(t, 10*time.Second, cfg.Server.Timeouts.ServerShutdown)

		assert.InDelta(t, 0.9, cfg.Resolver.NewUploadConfidence, 1e-9)
		assert.InDelta(t, 0.85, cfg.Resolver.SemanticConfidenceCap, 1e-9)
		assert.InDelta(t, 0.6, cfg.Resolver.MostRecentConfidence, 1e-9)
		assert.InDelta(t, 0.5, cfg.Resolver.DisambiguationThreshold, 1e-9)
		assert.Equal(t, 1, cfg.Resolver.MinTagOverlap)
		assert.Equal(t, 5, cfg.Resolver.MaxOptions)

		assert.Equal(t, "default", cfg.Budget.Strategy)
		assert.Equal(t, 4, cfg.Budget.CharsPerToken)
		assert.Equal(t, 256, cfg.Budget.AttachmentTokens)
		assert.InDelta(t, 0.6, cfg.Budget.AggressiveFactor, 1e-9)
		assert.Equal(t, 8192, cfg.Budget.DefaultTokenLimit)
		assert.False(t, cfg.Budget.UseTokenizer)
		assert.Equal(t, "cl100k_base", cfg.Budget.Encoding)

		assert.Equal(t, "development", cfg.Runtime.Environment)
		assert.Equal(t, "info", cfg.Runtime.LogLevel)

		assert.False(t, cfg.Monitoring.Enabled)
		assert.Equal(t, "/metrics", cfg.Monitoring.Path)

		// Rate limiting is off until a global limit is configured.
		assert.Equal(t, int64(0), cfg.RateLimit.GlobalRate.Limit)
		assert.Equal(t, time.Minute, cfg.RateLimit.GlobalRate.Period)
		assert.Equal(t, "brandloom:ratelimit:", cfg.RateLimit.Prefix)
		assert.Equal(t, 3, cfg.RateLimit.MaxRetry)
	})
}

// checkValidation applies a mutation to the default config and verifies the
// validator's verdict.
func checkValidation(t *testing.T, modify func(*Config), wantErr bool, errMsg string) {
	t.Helper()
	cfg := Default()
	modify(cfg)
	err := NewService().Validate(cfg)
	if !wantErr {
		assert.NoError(t, err)
		return
	}
	require.Error(t, err)
	if errMsg != "" {
		assert.Contains(t, err.Error(), errMsg)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("Should enforce the server port range", func(t *testing.T) {
		for port, wantErr := range map[int]bool{
			5601:  false,
			1:     false,
			65535: false,
			0:     true,
			65536: true,
			-1:    true,
		} {
			checkValidation(t, func(c *Config) { c.Server.Port = port }, wantErr, "")
		}
	})

	t.Run("Should restrict runtime environment to known names", func(t *testing.T) {
		for env, wantErr := range map[string]bool{
			"development": false,
			"staging":     false,
			"production":  false,
			"testing":     true,
			"":            true,
		} {
			checkValidation(t, func(c *Config) { c.Runtime.Environment = env }, wantErr, "")
		}
	})

	t.Run("Should restrict log level to known names", func(t *testing.T) {
		for level, wantErr := range map[string]bool{
			"debug":    false,
			"info":     false,
			"warn":     false,
			"error":    false,
			"disabled": false,
			"verbose":  true,
			"":         true,
		} {
			checkValidation(t, func(c *Config) { c.Runtime.LogLevel = level }, wantErr, "")
		}
	})

	t.Run("Should keep resolver confidences inside [0,1]", func(t *testing.T) {
		checkValidation(t, func(_ *Config) {}, false, "")
		checkValidation(t, func(c *Config) { c.Resolver.NewUploadConfidence = 1.2 }, true, "")
		checkValidation(t, func(c *Config) { c.Resolver.MostRecentConfidence = -0.1 }, true, "")
		checkValidation(t, func(c *Config) { c.Resolver.MinTagOverlap = 0 }, true, "")
		checkValidation(t, func(c *Config) { c.Resolver.MaxOptions = 0 }, true, "")
	})

	t.Run("Should enforce ordering between resolver thresholds", func(t *testing.T) {
		checkValidation(t, func(c *Config) {
			c.Resolver.NewUploadConfidence = 0.7
			c.Resolver.SemanticConfidenceCap = 0.85
		}, true, "new_upload_confidence must be at least semantic_confidence_cap")

		checkValidation(t, func(c *Config) {
			c.Resolver.DisambiguationThreshold = 0.8
			c.Resolver.MostRecentConfidence = 0.6
		}, true, "disambiguation_threshold must not exceed most_recent_confidence")
	})

	t.Run("Should validate budget strategy and factors", func(t *testing.T) {
		checkValidation(t, func(c *Config) { c.Budget.Strategy = "optimistic" }, true, "")
		checkValidation(t, func(c *Config) { c.Budget.CharsPerToken = 0 }, true, "")
		checkValidation(t, func(c *Config) { c.Budget.AttachmentTokens = -1 }, true, "")
		checkValidation(t, func(c *Config) { c.Budget.AggressiveFactor = 0 }, true, "")
		checkValidation(t, func(c *Config) { c.Budget.AggressiveFactor = 1.5 }, true, "")
		checkValidation(t, func(c *Config) { c.Budget.Encoding = "gpt99_base" }, true, "")
		checkValidation(t, func(c *Config) {
			c.Budget.UseTokenizer = true
			c.Budget.Encoding = ""
		}, true, "encoding")
	})
}

func TestMetadataSourceTracking(t *testing.T) {
	t.Run("Should record the source behind each section", func(t *testing.T) {
		meta := Metadata{
			Sources: map[string]SourceType{
				"server":   SourceCLI,
				"resolver": SourceEnv,
				"budget":   SourceYAML,
				"runtime":  SourceDefault,
			},
		}

		assert.Equal(t, SourceCLI, meta.Sources["server"])
		assert.Equal(t, SourceEnv, meta.Sources["resolver"])
		assert.Equal(t, SourceYAML, meta.Sources["budget"])
		assert.Equal(t, SourceDefault, meta.Sources["runtime"])
	})
}
