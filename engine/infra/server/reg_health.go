package server

import (
	"context"
	"net/http"

	"github.com/brandloom/brandloom/pkg/config"
	"github.com/gin-gonic/gin"
)

// Health endpoint
//
//	@Summary      Get server health
//	@Description  Returns overall service health, readiness and components status
//	@Tags         health,diagnostics
//	@Accept       json
//	@Produce      json
//	@Success      200 {object} map[string]interface{} "Service is healthy"
//	@Failure      503 {object} map[string]interface{} "Service is not ready"
//	@Router       /api/v0/health [get]
func CreateHealthHandler(server *Server, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready, healthStatus, monitoringStatus := gatherSystemStatus(server)
		response := gin.H{
			"status":     healthStatus,
			"version":    version,
			"ready":      ready,
			"monitoring": monitoringStatus,
		}
		if sources := configSources(c.Request.Context()); len(sources) > 0 {
			response["config_sources"] = sources
		}
		c.JSON(determineHealthStatusCode(ready), gin.H{
			"data":    response,
			"message": "Success",
		})
	}
}

// gatherSystemStatus folds component states into one readiness verdict. A
// monitoring service that was asked for but failed to start degrades the
// whole server; monitoring that is simply off does not.
func gatherSystemStatus(server *Server) (ready bool, healthStatus string, monitoringStatus gin.H) {
	ready, healthStatus = true, "healthy"
	monitoringStatus = gin.H{"enabled": false, "status": statusReady}

	if server == nil || server.monitoring == nil {
		return ready, healthStatus, monitoringStatus
	}
	switch {
	case server.monitoring.IsInitialized():
		monitoringStatus = gin.H{"enabled": true, "status": statusReady}
	case server.monitoring.InitializationError() != nil:
		monitoringStatus = gin.H{
			"enabled": true,
			"status":  statusNotReady,
			"error":   server.monitoring.InitializationError().Error(),
		}
		ready, healthStatus = false, "degraded"
	}
	return ready, healthStatus, monitoringStatus
}

func configSources(ctx context.Context) []string {
	manager := config.ManagerFromContext(ctx)
	if manager == nil {
		return nil
	}
	sources := manager.Sources()
	types := make([]string, 0, len(sources))
	for _, src := range sources {
		types = append(types, string(src.Type()))
	}
	return types
}

func determineHealthStatusCode(ready bool) int {
	if !ready {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
