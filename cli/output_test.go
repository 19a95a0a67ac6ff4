package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonFlagCommand(t *testing.T, value string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	if value != "" {
		require.NoError(t, cmd.Flags().Set("json", value))
	}
	return cmd
}

func TestShouldOutputJSON(t *testing.T) {
	t.Run("Should force JSON with the json flag", func(t *testing.T) {
		assert.True(t, shouldOutputJSON(jsonFlagCommand(t, "true")))
	})
	t.Run("Should fall back to JSON outside a terminal", func(t *testing.T) {
		// Test processes never run with a TTY on stdin and stdout, so the
		// interactive path cannot be taken here.
		assert.True(t, shouldOutputJSON(jsonFlagCommand(t, "")))
	})
}

func TestIsRunningInCI(t *testing.T) {
	t.Run("Should detect the generic CI variable", func(t *testing.T) {
		t.Setenv("CI", "1")
		assert.True(t, isRunningInCI())
	})
	t.Run("Should detect provider specific variables", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "true")
		assert.True(t, isRunningInCI())
	})
}
