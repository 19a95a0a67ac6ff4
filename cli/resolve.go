package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/engine/media"
	mrefuc "github.com/brandloom/brandloom/engine/mediaref/uc"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
)

// ResolveCmd runs one resolution turn from the command line, without a
// server. It reads the conversation history (and optionally the current
// uploads) from JSON files and prints the resolved context.
func ResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve one conversational turn against a history file",
		Long: "Resolve reads a conversation history from a JSON file, resolves which media " +
			"the utterance refers to and prints the resolved context. Intended for " +
			"debugging resolution behavior and for scripting.",
		Example: `  brandloom resolve --history history.json --utterance "make the logo bigger"
  brandloom resolve --history history.json --uploads uploads.json --utterance "combine these" --json`,
		RunE: handleResolveCmd,
	}
	cmd.Flags().String("history", "", "Path to the conversation history JSON file (required)")
	cmd.Flags().String("uploads", "", "Path to the current turn uploads JSON file")
	cmd.Flags().StringP("utterance", "u", "", "The user utterance to resolve (required)")
	cmd.Flags().Int("turn", -1, "Zero-based index of the current turn (defaults to after the history)")
	cmd.Flags().Int("budget", 0, "Token budget for history truncation (defaults to the configured budget)")
	cmd.Flags().Bool("json", false, "Output in JSON format (non-interactive)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	if err := cmd.MarkFlagRequired("history"); err != nil {
		panic(fmt.Sprintf("failed to mark history flag required: %v", err))
	}
	if err := cmd.MarkFlagRequired("utterance"); err != nil {
		panic(fmt.Sprintf("failed to mark utterance flag required: %v", err))
	}
	return cmd
}

func handleResolveCmd(cmd *cobra.Command, _ []string) error {
	ctx, manager, err := setupResolveEnvironment(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := manager.Close(ctx); closeErr != nil {
			logger.FromContext(ctx).Error("Failed to close config manager", "error", closeErr)
		}
	}()

	input, err := buildResolveInput(ctx, cmd)
	if err != nil {
		return err
	}
	out, err := mrefuc.NewResolveTurn(input).Execute(ctx)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	return writeResolveOutput(cmd, out)
}

// setupResolveEnvironment prepares a context for a one-shot run. Logs go to
// stderr at warn level so stdout carries nothing but the result.
func setupResolveEnvironment(cmd *cobra.Command) (context.Context, *config.Manager, error) {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.WarnLevel,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	})
	ctx := logger.ContextWithLogger(cmd.Context(), log)

	manager := config.NewManager(config.NewService())
	if _, err := manager.Load(ctx, config.NewDefaultProvider(), config.NewEnvProvider()); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config.ContextWithManager(ctx, manager), manager, nil
}

func buildResolveInput(ctx context.Context, cmd *cobra.Command) (*mrefuc.ResolveTurnInput, error) {
	historyPath, err := cmd.Flags().GetString("history")
	if err != nil {
		return nil, fmt.Errorf("failed to get history flag: %w", err)
	}
	rawHistory, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	history, err := conversation.DecodeHistory(ctx, rawHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to decode history file %s: %w", historyPath, err)
	}

	var uploads []media.Upload
	uploadsPath, err := cmd.Flags().GetString("uploads")
	if err != nil {
		return nil, fmt.Errorf("failed to get uploads flag: %w", err)
	}
	if uploadsPath != "" {
		rawUploads, readErr := os.ReadFile(uploadsPath)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read uploads file: %w", readErr)
		}
		uploads, err = media.DecodeUploads(ctx, rawUploads)
		if err != nil {
			return nil, fmt.Errorf("failed to decode uploads file %s: %w", uploadsPath, err)
		}
	}

	utterance, err := cmd.Flags().GetString("utterance")
	if err != nil {
		return nil, fmt.Errorf("failed to get utterance flag: %w", err)
	}
	turn, err := cmd.Flags().GetInt("turn")
	if err != nil {
		return nil, fmt.Errorf("failed to get turn flag: %w", err)
	}
	budget, err := cmd.Flags().GetInt("budget")
	if err != nil {
		return nil, fmt.Errorf("failed to get budget flag: %w", err)
	}
	return &mrefuc.ResolveTurnInput{
		History:     history,
		Uploads:     uploads,
		Utterance:   utterance,
		CurrentTurn: turn,
		TokenBudget: budget,
	}, nil
}

func writeResolveOutput(cmd *cobra.Command, out *mrefuc.ResolveTurnOutput) error {
	if shouldOutputJSON(cmd) {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderResolveOutput(out, ShouldUseColor(cmd)))
	return nil
}

type resolveStyles struct {
	title  lipgloss.Style
	key    lipgloss.Style
	detail lipgloss.Style
	warn   lipgloss.Style
}

func newResolveStyles(color bool) resolveStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return resolveStyles{title: plain, key: plain, detail: plain, warn: plain}
	}
	return resolveStyles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		key:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		warn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}

// renderResolveOutput renders the human-readable form of a resolved turn.
func renderResolveOutput(out *mrefuc.ResolveTurnOutput, color bool) string {
	styles := newResolveStyles(color)
	var b strings.Builder

	if out.Context.Disambiguation.Required {
		b.WriteString(styles.warn.Render("Disambiguation required") + "\n\n")
		b.WriteString(fmt.Sprintf("  Reason: %s\n", out.Context.Disambiguation.Reason))
		if out.Context.Disambiguation.SuggestedAction != "" {
			b.WriteString(fmt.Sprintf("  Suggestion: %s\n", out.Context.Disambiguation.SuggestedAction))
		}
		if len(out.Context.Disambiguation.Options) > 0 {
			b.WriteString("\n  Candidates:\n")
			for _, opt := range out.Context.Disambiguation.Options {
				b.WriteString(fmt.Sprintf("    %s %s\n",
					styles.key.Render(describeItem(opt.Item)),
					styles.detail.Render(fmt.Sprintf("(%s, confidence %.2f)", opt.Reason, opt.Confidence)),
				))
			}
		}
	} else {
		b.WriteString(styles.title.Render("Resolved") + "\n\n")
		b.WriteString(fmt.Sprintf("  Method:     %s\n", string(out.Context.Resolution.Method)))
		b.WriteString(fmt.Sprintf("  Confidence: %.2f\n", out.Context.Resolution.Confidence))
		if out.Context.Resolution.UserIntent != "" {
			b.WriteString(fmt.Sprintf("  Intent:     %s\n", out.Context.Resolution.UserIntent))
		}
		if len(out.Context.ResolvedMedia) == 0 {
			b.WriteString("\n  No media resolved for this turn.\n")
		} else {
			b.WriteString("\n  Media:\n")
			for _, item := range out.Context.ResolvedMedia {
				line := styles.key.Render(describeItem(item))
				if item.Role != "" {
					line += " " + styles.detail.Render("["+string(item.Role)+"]")
				}
				b.WriteString("    " + line + "\n")
			}
		}
		if out.TruncatedHistory != nil {
			b.WriteString(fmt.Sprintf("\n  History kept: %d message(s)\n", len(out.TruncatedHistory)))
		}
	}

	b.WriteString("\n" + styles.detail.Render(fmt.Sprintf(
		"registry %d item(s), %d upload(s), %dms", out.RegistrySize, out.UploadCount, out.ElapsedMS)))
	return b.String()
}

// describeItem formats one media item as "[N] name (type)".
func describeItem(item media.Item) string {
	name := item.FileName
	if name == "" {
		name = item.URL
	}
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("[%d] %s (%s)", item.DisplayIndex, name, item.Type)
}
