package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// extractCLIFlags copies explicitly-set flags into the map the CLI config
// provider consumes. Keys match the registry flag names so the provider can
// map them onto configuration paths; untouched flags stay absent so they
// never shadow YAML or env values.
func extractCLIFlags(cmd *cobra.Command, flags map[string]any) {
	stringFlags := []string{"host", "log-level", "config", "env-file"}
	boolFlags := []string{"cors", "monitoring", "debug"}

	for _, name := range stringFlags {
		if cmd.Flags().Changed(name) {
			if value, err := cmd.Flags().GetString(name); err == nil {
				flags[name] = value
			}
		}
	}
	for _, name := range boolFlags {
		if cmd.Flags().Changed(name) {
			if value, err := cmd.Flags().GetBool(name); err == nil {
				flags[name] = value
			}
		}
	}
	if cmd.Flags().Changed("port") {
		if value, err := cmd.Flags().GetInt("port"); err == nil {
			flags["port"] = value
		}
	}
}

// loadEnvFile resolves and loads the --env-file, refusing paths that escape
// the working directory.
func loadEnvFile(cmd *cobra.Command) (string, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return "", fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		return envFile, nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(pwd, envFile)
	}
	absPath, err := filepath.Abs(filepath.Clean(envFile))
	if err != nil {
		return "", fmt.Errorf("failed to resolve env file path: %w", err)
	}
	if !isPathWithinDirectory(absPath, pwd) {
		return "", fmt.Errorf("env file path '%s' is outside the project directory", envFile)
	}

	fileInfo, err := os.Stat(absPath)
	switch {
	case os.IsNotExist(err):
		// A missing env file is not an error; the path is still reported.
		return absPath, nil
	case err != nil:
		return "", fmt.Errorf("failed to stat env file: %w", err)
	case !fileInfo.Mode().IsRegular():
		return "", fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}

	if err := godotenv.Load(absPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to load env file %s: %w", absPath, err)
	}
	return absPath, nil
}

func isPathWithinDirectory(path, dir string) bool {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return false
	}
	if absPath == absDir {
		return true
	}
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}
	return strings.HasPrefix(absPath, absDir)
}
