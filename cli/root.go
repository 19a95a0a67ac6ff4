package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "brandloom",
		Short: "Brandloom media reference resolution engine",
		Long: "Brandloom resolves which media a conversational turn refers to and fits the " +
			"history to a token budget, either as a server or as one-shot commands.",
		SilenceUsage: true,
	}

	root.AddCommand(
		ServeCmd(),
		ResolveCmd(),
		ConfigCmd(),
		VersionCmd(),
	)

	return root
}
