package server

import (
	"fmt"
	"strings"

	corsmiddleware "github.com/brandloom/brandloom/engine/infra/server/middleware/cors"
	lgmiddleware "github.com/brandloom/brandloom/engine/infra/server/middleware/logger"
	"github.com/brandloom/brandloom/engine/infra/server/middleware/ratelimit"
	"github.com/brandloom/brandloom/engine/infra/server/middleware/requestid"
	timeoutmiddleware "github.com/brandloom/brandloom/engine/infra/server/middleware/timeout"
	"github.com/brandloom/brandloom/engine/infra/server/router"
	"github.com/brandloom/brandloom/engine/infra/server/routes"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/brandloom/brandloom/pkg/version"
	"github.com/gin-gonic/gin"
)

func convertRateLimitConfig(cfg *config.Config) *ratelimit.Config {
	out := ratelimit.DefaultConfig()
	out.GlobalRate = ratelimit.RateConfig{
		Limit:  cfg.RateLimit.GlobalRate.Limit,
		Period: cfg.RateLimit.GlobalRate.Period,
	}
	if cfg.RateLimit.Prefix != "" {
		out.Prefix = cfg.RateLimit.Prefix
	}
	if cfg.RateLimit.MaxRetry > 0 {
		out.MaxRetry = cfg.RateLimit.MaxRetry
	}
	out.ExcludedPaths = []string{
		"/healthz",
		"/readyz",
		routes.Metrics(),
		routes.HealthVersioned(),
	}
	return out
}

func (s *Server) setupRateLimiting(r *gin.Engine, cfg *config.Config) {
	if cfg.RateLimit.GlobalRate.Limit <= 0 {
		return
	}
	log := logger.FromContext(s.ctx)
	rateLimitConfig := convertRateLimitConfig(cfg)
	var manager *ratelimit.Manager
	var err error
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		manager, err = ratelimit.NewManagerWithMetrics(s.ctx, rateLimitConfig, s.monitoring.Meter())
	} else {
		manager, err = ratelimit.NewManager(rateLimitConfig)
	}
	if err != nil {
		log.Error("Failed to initialize rate limiting", "error", err)
		return
	}
	r.Use(manager.Middleware())
	log.Info("rate limiter initialized",
		"driver", "memory",
		"global_limit", cfg.RateLimit.GlobalRate.Limit,
		"global_period", cfg.RateLimit.GlobalRate.Period)
}

func (s *Server) buildRouter() error {
	r := gin.New()
	r.Use(gin.Recovery())
	cfg := config.FromContext(s.ctx)
	s.setupRateLimiting(r, cfg)
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.Use(s.monitoring.GinMiddleware(s.ctx))
	}
	r.Use(lgmiddleware.Middleware(s.ctx))
	r.Use(requestid.Middleware())
	if cfg.Server.CORSEnabled {
		r.Use(corsmiddleware.Middleware(cfg.Server.CORS))
	}
	r.Use(router.ErrorHandler())
	// Registered after ErrorHandler so the attached RequestError is still
	// visible when ErrorHandler inspects the context.
	r.Use(timeoutmiddleware.Middleware(cfg.Server.Timeout))
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.GET(metricsPath(cfg), gin.WrapH(s.monitoring.ExporterHandler()))
	}
	if err := RegisterRoutes(s.ctx, r, s); err != nil {
		return err
	}
	s.router = r
	return nil
}

func metricsPath(cfg *config.Config) string {
	if cfg != nil && cfg.Monitoring.Path != "" {
		return cfg.Monitoring.Path
	}
	return routes.Metrics()
}

func (s *Server) logStartupBanner() {
	log := logger.FromContext(s.ctx)
	cfg := config.FromContext(s.ctx)
	host := s.serverConfig.Host
	port := s.serverConfig.Port
	if cfg != nil {
		host = cfg.Server.Host
		port = cfg.Server.Port
	}
	fh := friendlyHost(host)
	httpURL := fmt.Sprintf("http://%s:%d", fh, port)
	apiURL := fmt.Sprintf("%s%s", httpURL, routes.Base())
	ver := version.Get().Version
	lines := []string{
		fmt.Sprintf("Brandloom %s", ver),
		fmt.Sprintf("  API      > %s", apiURL),
		fmt.Sprintf("  Resolve  > %s%s", httpURL, routes.Resolve()),
		fmt.Sprintf("  Truncate > %s%s", httpURL, routes.ContextTruncate()),
		fmt.Sprintf("  Health   > %s%s", httpURL, routes.HealthVersioned()),
	}
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		lines = append(lines, fmt.Sprintf("  Metrics  > %s%s", httpURL, metricsPath(cfg)))
	}
	banner := "\n" + strings.Join(lines, "\n")
	log.Info(banner)
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
