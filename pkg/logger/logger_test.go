package logger

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := NewLogger(&Config{
		Level:      level,
		Output:     buf,
		TimeFormat: "15:04:05",
	})
	return log, buf
}

func TestFromContext(t *testing.T) {
	t.Run("Should return the logger stored in the context", func(t *testing.T) {
		want := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), want)

		got := FromContext(ctx)

		require.NotNil(t, got)
		assert.Equal(t, want, got)
	})

	t.Run("Should fall back to the default logger", func(t *testing.T) {
		for name, ctx := range map[string]context.Context{
			"bare context": t.Context(),
			"wrong type":   context.WithValue(t.Context(), LoggerCtxKey, "not a logger"),
			"typed nil":    context.WithValue(t.Context(), LoggerCtxKey, (Logger)(nil)),
		} {
			got := FromContext(ctx)
			require.NotNil(t, got, name)
			got.Info("resolver fallback logger works")
		}
	})
}

func TestLogLevelMapping(t *testing.T) {
	t.Run("Should map every level onto charm levels", func(t *testing.T) {
		cases := map[LogLevel]charmlog.Level{
			DebugLevel:          charmlog.DebugLevel,
			InfoLevel:           charmlog.InfoLevel,
			WarnLevel:           charmlog.WarnLevel,
			ErrorLevel:          charmlog.ErrorLevel,
			LogLevel("unknown"): charmlog.InfoLevel,
		}
		for level, want := range cases {
			assert.Equal(t, want, level.ToCharmlogLevel(), "level %s", level)
		}
		// DisabledLevel sits above every real level so nothing passes the filter.
		assert.Greater(t, int(DisabledLevel.ToCharmlogLevel()), int(charmlog.ErrorLevel))
	})

	t.Run("Should parse level names case-insensitively", func(t *testing.T) {
		assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
		assert.Equal(t, WarnLevel, ParseLogLevel("warn"))
		assert.Equal(t, InfoLevel, ParseLogLevel("not-a-level"))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write through the configured output", func(t *testing.T) {
		log, buf := newBufferLogger(InfoLevel)

		log.Info("media registry rebuilt", "items", 4)

		assert.Contains(t, buf.String(), "media registry rebuilt")
		assert.Contains(t, buf.String(), "items")
	})

	t.Run("Should survive a nil config", func(t *testing.T) {
		log := NewLogger(nil)

		require.NotNil(t, log)
		log.Info("default config logger works")
	})

	t.Run("Should emit structured JSON when asked", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := NewLogger(&Config{
			Level:      InfoLevel,
			Output:     buf,
			JSON:       true,
			TimeFormat: "15:04:05",
		})

		log.Info("reference resolved", "method", "explicit_index")

		out := buf.String()
		assert.Contains(t, out, "reference resolved")
		assert.Contains(t, out, "{")
		assert.Contains(t, out, "}")
	})
}

func TestLoggerWith(t *testing.T) {
	t.Run("Should carry bound fields into every entry", func(t *testing.T) {
		log, buf := newBufferLogger(InfoLevel)

		turnLog := log.With("component", "resolver", "turn_index", 7)
		turnLog.Info("disambiguation required")

		out := buf.String()
		assert.Contains(t, out, "component")
		assert.Contains(t, out, "resolver")
		assert.Contains(t, out, "turn_index")
		assert.Contains(t, out, "disambiguation required")
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should default to readable info logging on stdout", func(t *testing.T) {
		cfg := DefaultConfig()

		assert.Equal(t, InfoLevel, cfg.Level)
		assert.Equal(t, os.Stdout, cfg.Output)
		assert.False(t, cfg.JSON)
		assert.False(t, cfg.AddSource)
	})

	t.Run("Should silence output under the test config", func(t *testing.T) {
		cfg := TestConfig()

		assert.Equal(t, DisabledLevel, cfg.Level)
		assert.Equal(t, io.Discard, cfg.Output)
	})

	t.Run("Should detect the go test environment", func(t *testing.T) {
		assert.True(t, IsTestEnvironment())
	})
}

func TestLevelFiltering(t *testing.T) {
	t.Run("Should filter entries below the configured level", func(t *testing.T) {
		log, buf := newBufferLogger(WarnLevel)

		log.Debug("registry walk detail")
		log.Info("upload normalized")
		log.Warn("semantic tie detected")
		log.Error("registry build failed")

		out := buf.String()
		assert.NotContains(t, out, "registry walk detail")
		assert.NotContains(t, out, "upload normalized")
		assert.Contains(t, out, "semantic tie detected")
		assert.Contains(t, out, "registry build failed")
	})

	t.Run("Should emit nothing when disabled", func(t *testing.T) {
		log, buf := newBufferLogger(DisabledLevel)

		log.Debug("a")
		log.Info("b")
		log.Warn("c")
		log.Error("d")

		assert.Empty(t, buf.String())
	})
}
