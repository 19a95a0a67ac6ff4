package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/brandloom/brandloom/engine/infra/server"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/config/definition"
	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	maxPortScanAttempts = 100

	initialRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 30 * time.Second

	defaultConfigFile = "brandloom.yaml"
	defaultEnvFile    = ".env"
)

// Helper functions to work around linter confusion with type assertions
func getIntDefault(registry *definition.Registry, path string) int {
	if val := registry.GetDefault(path); val != nil {
		if i, ok := val.(int); ok {
			return i
		}
	}
	return 0
}

func getStringDefault(registry *definition.Registry, path string) string {
	if val := registry.GetDefault(path); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getBoolDefault(registry *definition.Registry, path string) bool {
	if val := registry.GetDefault(path); val != nil {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Brandloom resolution server",
		RunE:  handleServeCmd,
	}

	// Get defaults from registry
	registry := definition.CreateRegistry()

	// Server configuration flags
	cmd.Flags().Int("port", getIntDefault(registry, "server.port"), "Port to bind the server to")
	cmd.Flags().String("host", getStringDefault(registry, "server.host"), "Host to bind the server to")
	cmd.Flags().Bool("cors", getBoolDefault(registry, "server.cors_enabled"), "Enable CORS")
	cmd.Flags().String("config", defaultConfigFile, "Path to the configuration file")
	cmd.Flags().String("env-file", defaultEnvFile, "Path to the environment variables file")
	cmd.Flags().
		Bool("monitoring", getBoolDefault(registry, "monitoring.enabled"), "Expose Prometheus metrics (env: MONITORING_ENABLED)")

	// Logging configuration flags
	cmd.Flags().
		String("log-level", getStringDefault(registry, "runtime.log_level"), "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("log-json", false, "Output logs in JSON format")
	cmd.Flags().Bool("log-source", false, "Include source file and line in logs")
	cmd.Flags().Bool("debug", false, "Enable debug mode (sets log level to debug)")
	cmd.Flags().Bool("watch", false, "Restart the server when the configuration file changes")

	// Set debug flag to override log level
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return fmt.Errorf("failed to get debug flag: %w", err)
		}

		if debug {
			return cmd.Flags().Set("log-level", "debug")
		}
		return nil
	}

	return cmd
}

// setupServeEnvironment prepares the process for serving: env file and the
// process logger built from the logging flags.
func setupServeEnvironment(cmd *cobra.Command) (context.Context, string, error) {
	envFilePath, err := loadEnvFile(cmd)
	if err != nil {
		return nil, "", err
	}
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	log := logger.SetupLogger(logLevel, logJSON, logSource)
	ctx := context.Background()
	ctx = logger.ContextWithLogger(ctx, log)
	return ctx, envFilePath, nil
}

// loadConfigManager loads configuration with the documented precedence:
// defaults, then the YAML file, then environment variables, then CLI flags.
func loadConfigManager(ctx context.Context, cmd *cobra.Command, configFile string) (*config.Manager, error) {
	sources := []config.Source{config.NewDefaultProvider()}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewEnvProvider())

	cliFlags := make(map[string]any)
	extractCLIFlags(cmd, cliFlags)
	if len(cliFlags) > 0 {
		sources = append(sources, config.NewCLIProvider(cliFlags))
	}

	manager := config.NewManager(config.NewService())
	if _, err := manager.Load(ctx, sources...); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return manager, nil
}

func handleServeCmd(cmd *cobra.Command, _ []string) error {
	ctx, envFilePath, err := setupServeEnvironment(cmd)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	manager, err := loadConfigManager(ctx, cmd, configFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := manager.Close(ctx); closeErr != nil {
			log.Error("Failed to close config manager", "error", closeErr)
		}
	}()
	ctx = config.ContextWithManager(ctx, manager)
	cfg := manager.Get()
	setupGinMode(ctx)
	logProductionWarnings(ctx, cfg)
	availablePort, err := findAvailablePort(cfg.Server.Host, cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("no free port found near %d: %w", cfg.Server.Port, err)
	}
	if availablePort != cfg.Server.Port {
		log.Info("Port unavailable, using alternative port",
			"requested_port", cfg.Server.Port, "available_port", availablePort)
		cfg.Server.Port = availablePort
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	if watch {
		return runAndWatchServer(ctx, manager, envFilePath)
	}
	srv, err := server.NewServer(ctx, envFilePath)
	if err != nil {
		return err
	}
	return srv.Run()
}

// setupGinMode selects the gin mode from the runtime environment unless the
// caller pinned one via GIN_MODE.
func setupGinMode(ctx context.Context) {
	if os.Getenv("GIN_MODE") != "" {
		return
	}
	if config.IsDevelopment(ctx) {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// logProductionWarnings flags risky settings when serving a production
// environment.
func logProductionWarnings(ctx context.Context, cfg *config.Config) {
	if !config.IsProduction(ctx) {
		return
	}
	log := logger.FromContext(ctx)
	for _, origin := range cfg.Server.CORS.AllowedOrigins {
		if strings.Contains(origin, "localhost") {
			log.Warn("CORS allows localhost origins in production")
			break
		}
	}
	if cfg.RateLimit.GlobalRate.Limit <= 0 {
		log.Warn("Rate limiting is disabled in production")
	}
}

// runAndWatchServer restarts the server whenever the configuration manager
// reloads. The manager already hot-reloads values for request handlers; the
// restart makes server-level settings like port, timeouts and middleware
// wiring take effect too.
func runAndWatchServer(ctx context.Context, manager *config.Manager, envFilePath string) error {
	log := logger.FromContext(ctx)
	restartChan := make(chan bool, 1)
	manager.OnChange(func(_ *config.Config) {
		select {
		case restartChan <- true:
			log.Debug("Configuration change detected, scheduling restart")
		default:
			// Restart already pending
		}
	})
	retryDelay := initialRetryDelay
	for {
		// Find available port on each restart in case the original port becomes free
		cfg := manager.Get()
		availablePort, err := findAvailablePort(cfg.Server.Host, cfg.Server.Port)
		if err != nil {
			return fmt.Errorf("no free port found near %d: %w", cfg.Server.Port, err)
		}
		if availablePort != cfg.Server.Port {
			log.Info("port conflict on restart, using next available port",
				"original_port", cfg.Server.Port,
				"available_port", availablePort)
			cfg.Server.Port = availablePort
		}

		srv, err := server.NewServer(ctx, envFilePath)
		if err != nil {
			return err
		}
		serverErrChan := make(chan error, 1)
		go func() {
			serverErrChan <- srv.Run()
		}()
		log.Info("Server started. Watching for configuration changes.")
		select {
		case <-restartChan:
			log.Info("Configuration changed. Shutting down server...")
			srv.Shutdown()
			<-serverErrChan // Wait for shutdown to complete
			log.Info("Server shut down. Restarting...")
			// Reset retry delay on successful config-based restart
			retryDelay = initialRetryDelay
			// Drain the channel in case of multiple change events
			for len(restartChan) > 0 {
				<-restartChan
			}
			continue // Restart the loop
		case err := <-serverErrChan:
			if err != nil {
				log.Error("Server stopped with error", "error", err)
				// Use exponential back-off to prevent tight restart loops on server failures
				log.Debug("Waiting before retry...", "delay", retryDelay)
				time.Sleep(retryDelay)
				// Double the delay for next retry, up to maximum
				retryDelay *= 2
				if retryDelay > maxRetryDelay {
					retryDelay = maxRetryDelay
				}
				continue // Retry after back-off
			}
			log.Info("Server stopped.")
			return nil
		}
	}
}

// isPortAvailable checks if a port is available for binding
func isPortAvailable(host string, port int) bool {
	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// findAvailablePort finds the next available port starting from the given port
func findAvailablePort(host string, startPort int) (int, error) {
	if isPortAvailable(host, startPort) {
		return startPort, nil
	}

	// Common alternative ports for development servers
	commonPorts := []int{5602, 5603, 5610, 8000, 8001, 8080, 8081, 9000, 9001}
	for _, port := range commonPorts {
		if port != startPort && isPortAvailable(host, port) {
			return port, nil
		}
	}

	// Scan incrementally from the start port, skipping already tried ports
	triedPorts := make(map[int]bool)
	for _, p := range commonPorts {
		triedPorts[p] = true
	}
	triedPorts[startPort] = true

	for i := 1; i < maxPortScanAttempts; i++ {
		portUp := startPort + i
		portDown := startPort - i

		if portUp <= 65535 && !triedPorts[portUp] && isPortAvailable(host, portUp) {
			return portUp, nil
		}

		// Stay above privileged ports when scanning downward
		if portDown >= 1024 && !triedPorts[portDown] && isPortAvailable(host, portDown) {
			return portDown, nil
		}
	}

	return 0, fmt.Errorf("no available port found near %d after checking %d ports", startPort, maxPortScanAttempts)
}
