package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/brandloom/brandloom/engine/infra/monitoring"
	mrefmetrics "github.com/brandloom/brandloom/engine/mediaref/metrics"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	statusNotReady            = "not_ready"
	statusReady               = "ready"
	monitoringInitTimeout     = 500 * time.Millisecond
	monitoringShutdownTimeout = 5 * time.Second
	serverShutdownTimeout     = 5 * time.Second
	httpReadTimeout           = 15 * time.Second
	httpWriteTimeout          = 15 * time.Second
	httpIdleTimeout           = 60 * time.Second
	hostAny                   = "0.0.0.0"
	hostLoopback              = "127.0.0.1"
)

type Server struct {
	serverConfig *config.ServerConfig
	envFilePath  string
	router       *gin.Engine
	monitoring   *monitoring.Service
	ctx          context.Context
	cancel       context.CancelFunc
	httpServer   *http.Server
	shutdownOnce sync.Once
}

func NewServer(ctx context.Context, envFilePath string) (*Server, error) {
	serverCtx, cancel := context.WithCancel(ctx)
	cfg := config.FromContext(serverCtx)
	if cfg == nil {
		cancel()
		return nil, fmt.Errorf("configuration missing from context; attach a manager with config.ContextWithManager")
	}
	return &Server{
		serverConfig: &cfg.Server,
		envFilePath:  envFilePath,
		ctx:          serverCtx,
		cancel:       cancel,
	}, nil
}

// Run builds the router and serves HTTP until a shutdown signal arrives or
// the listener fails. Serving and signal handling run in one errgroup so a
// listen failure tears down the waiter and vice versa.
func (s *Server) Run() error {
	s.setupMonitoring()
	defer s.shutdownMonitoring()

	if err := s.buildRouter(); err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	s.logStartupBanner()

	srv := s.createHTTPServer()
	s.httpServer = srv

	group, groupCtx := errgroup.WithContext(s.ctx)
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return s.waitForShutdown(groupCtx, srv)
	})
	return group.Wait()
}

func (s *Server) setupMonitoring() {
	cfg := config.FromContext(s.ctx)
	timeout := cfg.Server.Timeouts.MonitoringInit
	if timeout <= 0 {
		timeout = monitoringInitTimeout
	}
	initCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	s.monitoring = monitoring.NewMonitoringServiceWithFallback(initCtx, monitoring.FromAppConfig(cfg))
	if s.monitoring.IsInitialized() {
		mrefmetrics.Init(s.ctx, s.monitoring.Meter())
	}
}

func (s *Server) shutdownMonitoring() {
	if s.monitoring == nil || !s.monitoring.IsInitialized() {
		return
	}
	cfg := config.FromContext(s.ctx)
	timeout := monitoringShutdownTimeout
	if cfg != nil && cfg.Server.Timeouts.MonitoringShutdown > 0 {
		timeout = cfg.Server.Timeouts.MonitoringShutdown
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.monitoring.Shutdown(shutdownCtx); err != nil {
		logger.FromContext(s.ctx).Warn("Monitoring shutdown failed", "error", err)
	}
}

func (s *Server) createHTTPServer() *http.Server {
	cfg := config.FromContext(s.ctx)
	readTimeout := httpReadTimeout
	writeTimeout := httpWriteTimeout
	idleTimeout := httpIdleTimeout
	if cfg != nil {
		if cfg.Server.Timeouts.HTTPRead > 0 {
			readTimeout = cfg.Server.Timeouts.HTTPRead
		}
		if cfg.Server.Timeouts.HTTPWrite > 0 {
			writeTimeout = cfg.Server.Timeouts.HTTPWrite
		}
		if cfg.Server.Timeouts.HTTPIdle > 0 {
			idleTimeout = cfg.Server.Timeouts.HTTPIdle
		}
	}
	addr := fmt.Sprintf("%s:%d", s.serverConfig.Host, s.serverConfig.Port)
	logger.FromContext(s.ctx).Info("Starting HTTP server",
		"address", fmt.Sprintf("http://%s", addr),
	)
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

func (s *Server) waitForShutdown(ctx context.Context, srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log := logger.FromContext(s.ctx)
	log.Debug("Received shutdown signal, initiating graceful shutdown")

	var shutdownErr error
	s.shutdownOnce.Do(func() {
		cfg := config.FromContext(s.ctx)
		timeout := serverShutdownTimeout
		if cfg != nil && cfg.Server.Timeouts.ServerShutdown > 0 {
			timeout = cfg.Server.Timeouts.ServerShutdown
		}
		s.cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
			return
		}
		log.Info("Server shutdown completed successfully")
	})
	return shutdownErr
}

// Shutdown stops the server from another goroutine, typically tests.
func (s *Server) Shutdown() {
	s.cancel()
}

// Router exposes the built gin engine, nil until Run has configured it.
func (s *Server) Router() *gin.Engine {
	return s.router
}
