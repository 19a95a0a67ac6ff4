package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
)

// ConfigCmd groups the configuration inspection subcommands.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate Brandloom configuration",
	}
	cmd.AddCommand(
		configShowCmd(),
		configValidateCmd(),
		configEnvCmd(),
	)
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: "Show prints the configuration the server would run with, after applying " +
			"defaults, the YAML file, environment variables and flags.",
		RunE: handleConfigShowCmd,
	}
	cmd.Flags().String("config", defaultConfigFile, "Path to the configuration file")
	cmd.Flags().String("env-file", defaultEnvFile, "Path to the environment variables file")
	cmd.Flags().String("format", "", "Output format: json, yaml or table (default chosen by terminal)")
	cmd.Flags().Bool("sources", false, "Show which source provided each value and the env override")
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without starting the server",
		RunE:  handleConfigValidateCmd,
	}
	cmd.Flags().String("config", defaultConfigFile, "Path to the configuration file")
	cmd.Flags().String("env-file", defaultEnvFile, "Path to the environment variables file")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func configEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "List environment variables that override configuration",
		RunE:  handleConfigEnvCmd,
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

// setupConfigEnvironment mirrors the serve command's configuration loading so
// show and validate report exactly what the server would run with. Logs go to
// stderr at warn level so stdout carries nothing but the result.
func setupConfigEnvironment(cmd *cobra.Command) (context.Context, *config.Manager, error) {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.WarnLevel,
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	})
	ctx := logger.ContextWithLogger(cmd.Context(), log)

	if _, err := loadEnvFile(cmd); err != nil {
		return nil, nil, err
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	manager, err := loadConfigManager(ctx, cmd, configFile)
	if err != nil {
		return nil, nil, err
	}
	return config.ContextWithManager(ctx, manager), manager, nil
}

func handleConfigShowCmd(cmd *cobra.Command, _ []string) error {
	ctx, manager, err := setupConfigEnvironment(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := manager.Close(ctx); closeErr != nil {
			logger.FromContext(ctx).Error("Failed to close config manager", "error", closeErr)
		}
	}()

	showSources, err := cmd.Flags().GetBool("sources")
	if err != nil {
		return fmt.Errorf("failed to get sources flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format == "" {
		if shouldOutputJSON(cmd) {
			format = "json"
		} else {
			format = "table"
		}
	}

	flat := flattenConfig(manager.Get())
	var sources map[string]config.SourceType
	if showSources {
		sources = make(map[string]config.SourceType, len(flat))
		for key := range flat {
			sources[key] = manager.Service.GetSource(key)
		}
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		payload := map[string]any{"config": flat}
		if showSources {
			payload["sources"] = sources
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case "yaml":
		payload := map[string]any{"config": flat}
		if showSources {
			payload["sources"] = sources
		}
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		return encoder.Encode(payload)
	case "table":
		return writeConfigTable(out, flat, sources)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeConfigTable(out io.Writer, flat map[string]string, sources map[string]config.SourceType) error {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if sources != nil {
		fmt.Fprintln(w, "KEY\tVALUE\tSOURCE\tENV")
		fmt.Fprintln(w, "---\t-----\t------\t---")
	} else {
		fmt.Fprintln(w, "KEY\tVALUE")
		fmt.Fprintln(w, "---\t-----")
	}
	for _, key := range keys {
		if sources != nil {
			source := sources[key]
			if source == "" {
				source = config.SourceDefault
			}
			envVar := config.EnvVarForPath(key)
			if envVar == "" {
				envVar = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, flat[key], source, envVar)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", key, flat[key])
	}
	return w.Flush()
}

func handleConfigValidateCmd(cmd *cobra.Command, _ []string) error {
	ctx, manager, err := setupConfigEnvironment(cmd)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	defer func() {
		if closeErr := manager.Close(ctx); closeErr != nil {
			logger.FromContext(ctx).Error("Failed to close config manager", "error", closeErr)
		}
	}()

	out := cmd.OutOrStdout()
	if shouldOutputJSON(cmd) {
		payload, err := json.MarshalIndent(map[string]string{"status": "valid"}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal validation result: %w", err)
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}
	fmt.Fprintln(out, "Configuration valid")
	return nil
}

type envMappingRow struct {
	EnvVar     string `json:"env_var"`
	ConfigPath string `json:"config_path"`
	Value      string `json:"value"`
}

func handleConfigEnvCmd(cmd *cobra.Command, _ []string) error {
	rows := collectEnvMappings()
	out := cmd.OutOrStdout()
	if shouldOutputJSON(cmd) {
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal env mappings: %w", err)
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENVIRONMENT VARIABLE\tCONFIG PATH\tCURRENT VALUE")
	fmt.Fprintln(w, "--------------------\t-----------\t-------------")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.EnvVar, row.ConfigPath, row.Value)
	}
	return w.Flush()
}

// collectEnvMappings walks the config struct tags and pairs every env
// override with its current process value.
func collectEnvMappings() []envMappingRow {
	mappings := config.EnvMappings()
	rows := make([]envMappingRow, 0, len(mappings))
	for _, mapping := range mappings {
		value := os.Getenv(mapping.EnvVar)
		if value == "" {
			value = "(not set)"
		}
		rows = append(rows, envMappingRow{
			EnvVar:     mapping.EnvVar,
			ConfigPath: mapping.ConfigPath,
			Value:      value,
		})
	}
	return rows
}

// flattenConfig converts the nested config into a flat key-value map keyed by
// koanf paths, matching what config files and env overrides use.
func flattenConfig(cfg *config.Config) map[string]string {
	result := make(map[string]string)
	flattenServerConfig(cfg, result)
	flattenRuntimeConfig(cfg, result)
	flattenResolverConfig(cfg, result)
	flattenBudgetConfig(cfg, result)
	flattenMonitoringConfig(cfg, result)
	flattenRateLimitConfig(cfg, result)
	flattenCLIConfig(cfg, result)
	return result
}

func flattenServerConfig(cfg *config.Config, result map[string]string) {
	result["server.host"] = cfg.Server.Host
	result["server.port"] = fmt.Sprintf("%d", cfg.Server.Port)
	result["server.cors_enabled"] = fmt.Sprintf("%v", cfg.Server.CORSEnabled)
	result["server.cors.allowed_origins"] = strings.Join(cfg.Server.CORS.AllowedOrigins, ",")
	result["server.cors.allow_credentials"] = fmt.Sprintf("%v", cfg.Server.CORS.AllowCredentials)
	result["server.cors.max_age"] = fmt.Sprintf("%d", cfg.Server.CORS.MaxAge)
	result["server.max_body_bytes"] = fmt.Sprintf("%d", cfg.Server.MaxBodyBytes)
	result["server.timeout"] = cfg.Server.Timeout.String()
	result["server.timeouts.http_read"] = cfg.Server.Timeouts.HTTPRead.String()
	result["server.timeouts.http_write"] = cfg.Server.Timeouts.HTTPWrite.String()
	result["server.timeouts.http_idle"] = cfg.Server.Timeouts.HTTPIdle.String()
	result["server.timeouts.server_shutdown"] = cfg.Server.Timeouts.ServerShutdown.String()
}

func flattenRuntimeConfig(cfg *config.Config, result map[string]string) {
	result["runtime.environment"] = cfg.Runtime.Environment
	result["runtime.log_level"] = cfg.Runtime.LogLevel
}

func flattenResolverConfig(cfg *config.Config, result map[string]string) {
	result["resolver.new_upload_confidence"] = fmt.Sprintf("%g", cfg.Resolver.NewUploadConfidence)
	result["resolver.semantic_confidence_cap"] = fmt.Sprintf("%g", cfg.Resolver.SemanticConfidenceCap)
	result["resolver.most_recent_confidence"] = fmt.Sprintf("%g", cfg.Resolver.MostRecentConfidence)
	result["resolver.disambiguation_threshold"] = fmt.Sprintf("%g", cfg.Resolver.DisambiguationThreshold)
	result["resolver.min_tag_overlap"] = fmt.Sprintf("%d", cfg.Resolver.MinTagOverlap)
	result["resolver.max_options"] = fmt.Sprintf("%d", cfg.Resolver.MaxOptions)
}

func flattenBudgetConfig(cfg *config.Config, result map[string]string) {
	result["budget.strategy"] = cfg.Budget.Strategy
	result["budget.chars_per_token"] = fmt.Sprintf("%d", cfg.Budget.CharsPerToken)
	result["budget.attachment_tokens"] = fmt.Sprintf("%d", cfg.Budget.AttachmentTokens)
	result["budget.aggressive_factor"] = fmt.Sprintf("%g", cfg.Budget.AggressiveFactor)
	result["budget.default_token_limit"] = fmt.Sprintf("%d", cfg.Budget.DefaultTokenLimit)
	result["budget.use_tokenizer"] = fmt.Sprintf("%v", cfg.Budget.UseTokenizer)
	result["budget.encoding"] = cfg.Budget.Encoding
}

func flattenMonitoringConfig(cfg *config.Config, result map[string]string) {
	result["monitoring.enabled"] = fmt.Sprintf("%v", cfg.Monitoring.Enabled)
	result["monitoring.path"] = cfg.Monitoring.Path
}

func flattenRateLimitConfig(cfg *config.Config, result map[string]string) {
	result["ratelimit.global_rate.limit"] = fmt.Sprintf("%d", cfg.RateLimit.GlobalRate.Limit)
	result["ratelimit.global_rate.period"] = cfg.RateLimit.GlobalRate.Period.String()
	result["ratelimit.prefix"] = cfg.RateLimit.Prefix
	result["ratelimit.max_retry"] = fmt.Sprintf("%d", cfg.RateLimit.MaxRetry)
}

func flattenCLIConfig(cfg *config.Config, result map[string]string) {
	result["cli.debug"] = fmt.Sprintf("%v", cfg.CLI.Debug)
}
