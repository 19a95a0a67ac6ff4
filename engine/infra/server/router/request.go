package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRequestBody binds the JSON request body into T. On malformed input it
// writes a 400 problem response and returns nil so handlers can bail with a
// bare return.
func GetRequestBody[T any](c *gin.Context) *T {
	var body T
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondProblemWithCode(c, http.StatusBadRequest, ErrInvalidInputCode, "invalid request body: "+err.Error())
		return nil
	}
	return &body
}
