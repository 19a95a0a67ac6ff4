package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigEqual(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Host: "localhost", Port: 5601},
			Resolver: ResolverConfig{
				NewUploadConfidence:     0.9,
				SemanticConfidenceCap:   0.85,
				MostRecentConfidence:    0.6,
				DisambiguationThreshold: 0.5,
				MaxOptions:              5,
			},
			Budget: BudgetConfig{Strategy: "default", AttachmentTokens: 256},
		}
	}

	t.Run("Should treat identical configurations as equal", func(t *testing.T) {
		assert.True(t, configEqual(base(), base()))
	})

	t.Run("Should handle nil configurations", func(t *testing.T) {
		assert.True(t, configEqual(nil, nil))
		assert.False(t, configEqual(base(), nil))
		assert.False(t, configEqual(nil, base()))
	})

	t.Run("Should detect a changed field in any section", func(t *testing.T) {
		mutations := map[string]func(*Config){
			"server host":        func(c *Config) { c.Server.Host = "0.0.0.0" },
			"resolver threshold": func(c *Config) { c.Resolver.DisambiguationThreshold = 0.4 },
			"budget strategy":    func(c *Config) { c.Budget.Strategy = "conservative" },
		}
		for name, mutate := range mutations {
			changed := base()
			mutate(changed)
			assert.False(t, configEqual(base(), changed), name)
		}
	})
}

func TestManagerCallbacks(t *testing.T) {
	t.Run("Should notify subscribers on the first load", func(t *testing.T) {
		manager := NewManager(NewService())
		ctx := context.Background()
		defer manager.Close(ctx)

		var seen []*Config
		manager.OnChange(func(c *Config) { seen = append(seen, c) })

		_, err := manager.Load(ctx, NewDefaultProvider())
		require.NoError(t, err)
		require.Len(t, seen, 1)
		assert.Equal(t, 5601, seen[0].Server.Port)
	})

	t.Run("Should skip callbacks when a reload changes nothing", func(t *testing.T) {
		manager := NewManager(NewService())
		ctx := context.Background()
		defer manager.Close(ctx)

		calls := 0
		manager.OnChange(func(*Config) { calls++ })

		_, err := manager.Load(ctx, NewDefaultProvider())
		require.NoError(t, err)
		require.NoError(t, manager.Reload(ctx))
		assert.Equal(t, 1, calls)
	})

	t.Run("Should keep the old configuration when a reload is invalid", func(t *testing.T) {
		manager := NewManager(NewService())
		ctx := context.Background()
		defer manager.Close(ctx)

		_, err := manager.Load(ctx, NewDefaultProvider())
		require.NoError(t, err)

		t.Setenv("RUNTIME_ENVIRONMENT", "testing")
		require.Error(t, manager.Reload(ctx))
		assert.Equal(t, "development", manager.Get().Runtime.Environment)
	})
}
