package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ciEnvVars covers the providers we have seen in the wild; any one being set
// marks the run as non-interactive.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"BUILDKITE",
	"DRONE",
	"JENKINS_HOME",
	"JENKINS_URL",
	"TEAMCITY_VERSION",
	"TF_BUILD",
	"APPVEYOR",
	"BITBUCKET_COMMIT",
	"CODEBUILD_BUILD_ID",
}

func isRunningInCI() bool {
	for _, v := range ciEnvVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// isInteractiveEnvironment reports whether a human is plausibly at the other
// end: both stdin and stdout on a terminal, outside CI, with a TERM that can
// render something.
func isInteractiveEnvironment() bool {
	if isRunningInCI() {
		return false
	}
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// shouldOutputJSON decides between machine and human output for one-shot
// commands. An explicit --json flag always wins; otherwise non-interactive
// environments get JSON so the command composes with pipes and CI.
func shouldOutputJSON(cmd *cobra.Command) bool {
	if jsonFlag, err := cmd.Flags().GetBool("json"); err == nil && jsonFlag {
		return true
	}
	return !isInteractiveEnvironment()
}

// ShouldUseColor honors --no-color and the NO_COLOR convention before falling
// back to terminal detection.
func ShouldUseColor(cmd *cobra.Command) bool {
	if noColor, err := cmd.Flags().GetBool("no-color"); err == nil && noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isTerminal(os.Stdout) || isRunningInCI() {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
