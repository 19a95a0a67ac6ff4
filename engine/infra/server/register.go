package server

import (
	"context"

	sizemw "github.com/brandloom/brandloom/engine/infra/server/middleware/size"
	"github.com/brandloom/brandloom/engine/infra/server/routes"
	mrefrouter "github.com/brandloom/brandloom/engine/mediaref/router"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(ctx context.Context, router *gin.Engine, server *Server) error {
	cfg := config.FromContext(ctx)
	version := routes.Version()
	prefixURL := routes.Base()
	setupDiagnosticEndpoints(router, version, prefixURL, server)
	router.GET(prefixURL+"/health", CreateHealthHandler(server, version))
	apiBase := router.Group(prefixURL)
	apiBase.Use(sizemw.BodySizeLimiter(cfg.Server.MaxBodyBytes))
	mrefrouter.Register(apiBase)

	logger.FromContext(ctx).Info("Completed route registration",
		"base_path", prefixURL,
	)
	return nil
}
