package router

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/engine/core"
	"github.com/brandloom/brandloom/pkg/logger"
)

const problemContentType = "application/problem+json"

// RespondProblem writes a canonical RFC 7807 error response and aborts the
// handler chain.
func RespondProblem(c *gin.Context, problem *core.Problem) {
	prepared := core.NormalizeProblem(problem)
	logProblem(c, prepared)

	payload, err := json.Marshal(core.BuildProblemBody(prepared))
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("failed to marshal problem", "err", err)
		c.Data(http.StatusInternalServerError, problemContentType,
			[]byte(`{"status":500,"error":"Internal Server Error"}`))
		c.Abort()
		return
	}
	c.Data(prepared.Status, problemContentType, payload)
	c.Abort()
}

// RespondProblemWithCode writes a problem response embedding a code and detail.
func RespondProblemWithCode(c *gin.Context, status int, code string, detail string) {
	RespondProblem(c, &core.Problem{
		Status: status,
		Title:  http.StatusText(status),
		Detail: detail,
		Extras: map[string]any{"code": code},
	})
}

func logProblem(c *gin.Context, problem *core.Problem) {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []any{
		"status", problem.Status,
		"title", problem.Title,
		"detail", problem.Detail,
		"route", route,
		"path", c.Request.URL.Path,
	}
	if problem.Instance != "" {
		fields = append(fields, "instance", problem.Instance)
	}
	if code, ok := problem.Extras["code"]; ok {
		fields = append(fields, "code", code)
	}
	switch {
	case c.Request.Header.Get("X-Correlation-ID") != "":
		fields = append(fields, "correlation_id", c.Request.Header.Get("X-Correlation-ID"))
	case c.Request.Header.Get("X-Request-ID") != "":
		fields = append(fields, "request_id", c.Request.Header.Get("X-Request-ID"))
	case c.Writer.Header().Get("X-Request-ID") != "":
		fields = append(fields, "request_id", c.Writer.Header().Get("X-Request-ID"))
	}

	log := logger.FromContext(c.Request.Context())
	if problem.Status >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
