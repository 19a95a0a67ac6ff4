package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brandloom/brandloom/engine/infra/server/routes"
	"github.com/gin-gonic/gin"
)

func setupDiagnosticEndpoints(router *gin.Engine, version, prefixURL string, server *Server) {
	router.GET("/", createRootHandler(version, prefixURL))
	router.GET(prefixURL, createRootHandler(version, prefixURL))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"data":    gin.H{"status": "ok"},
			"message": "Success",
		})
	})
	router.GET("/readyz", func(c *gin.Context) {
		ready, healthStatus, monitoringStatus := gatherSystemStatus(server)
		statusCode := determineHealthStatusCode(ready)
		c.JSON(statusCode, gin.H{
			"data": gin.H{
				"status":     healthStatus,
				"version":    version,
				"ready":      ready,
				"monitoring": monitoringStatus,
			},
			"message": "Success",
		})
	})
}

func createRootHandler(version, prefixURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		baseURL := fmt.Sprintf("%s://%s", requestScheme(c), requestHost(c))
		c.JSON(http.StatusOK, gin.H{
			"data": gin.H{
				"name":        "Brandloom API",
				"version":     version,
				"description": "Media reference resolution and context budgeting for conversational agents",
				"endpoints": gin.H{
					"health":   fmt.Sprintf("%s%s/health", baseURL, prefixURL),
					"api":      fmt.Sprintf("%s%s", baseURL, prefixURL),
					"resolve":  fmt.Sprintf("%s%s", baseURL, routes.Resolve()),
					"truncate": fmt.Sprintf("%s%s", baseURL, routes.ContextTruncate()),
				},
			},
			"message": "Success",
		})
	}
}

// requestScheme trusts X-Forwarded-Proto when a proxy set it, taking only the
// first hop. Anything that is not https collapses to http.
func requestScheme(c *gin.Context) string {
	scheme := strings.ToLower(strings.TrimSpace(c.Request.Header.Get("X-Forwarded-Proto")))
	if comma := strings.IndexByte(scheme, ','); comma >= 0 {
		scheme = strings.TrimSpace(scheme[:comma])
	}
	if scheme == "" && c.Request.TLS != nil {
		scheme = "https"
	}
	if scheme == "https" {
		return "https"
	}
	return "http"
}

func requestHost(c *gin.Context) string {
	for _, candidate := range []string{
		c.Request.Host,
		c.Request.Header.Get("X-Forwarded-Host"),
		c.Request.URL.Host,
	} {
		if host := sanitizeHost(candidate); host != "" {
			return host
		}
	}
	return "localhost"
}

// sanitizeHost rejects values that do not parse as a bare authority, which
// keeps header-injected garbage out of the URLs we hand back.
func sanitizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if comma := strings.IndexByte(raw, ','); comma >= 0 {
		raw = strings.TrimSpace(raw[:comma])
	}
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse("//" + raw)
	if err != nil {
		return ""
	}
	return parsed.Host
}
