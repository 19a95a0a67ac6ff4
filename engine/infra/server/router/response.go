package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard success envelope for API handlers.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// RespondOK writes a 200 response with the standard envelope.
func RespondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// RespondWithError writes the standardized error envelope and aborts the
// request.
func RespondWithError(c *gin.Context, status int, err error) {
	info := &ErrorInfo{Code: ErrInternalCode, Message: http.StatusText(status)}
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		info = reqErr.GetErrorInfo()
	case err != nil:
		info.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, Response{
		Status:  status,
		Message: info.Message,
		Error:   info,
	})
}

// ErrorHandler converts errors attached to the gin context into the
// standardized error envelope. Handlers that already wrote a response are left
// alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			RespondWithError(c, reqErr.StatusCode, reqErr)
			return
		}
		RespondWithError(c, http.StatusInternalServerError, err)
	}
}
