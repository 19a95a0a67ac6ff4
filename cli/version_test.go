package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandloom/brandloom/pkg/version"
)

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	root := RootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"version"}, args...))
	require.NoError(t, root.ExecuteContext(t.Context()))
	return buf.String()
}

func TestVersionCmd(t *testing.T) {
	t.Run("Should print human readable build info", func(t *testing.T) {
		out := runVersion(t)
		assert.Contains(t, out, "brandloom version")
		assert.Contains(t, out, "commit:")
		assert.Contains(t, out, "built:")
	})
	t.Run("Should print JSON build info with the json flag", func(t *testing.T) {
		out := runVersion(t, "--json")

		var info version.Info
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Equal(t, version.GetVersion(), info.Version)
		assert.Equal(t, version.GetCommitHash(), info.CommitHash)
		assert.Equal(t, version.GetBuildDate(), info.BuildDate)
	})
}
