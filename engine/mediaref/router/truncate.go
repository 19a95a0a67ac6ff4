package mrefrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/engine/infra/server/router"
	mrefuc "github.com/brandloom/brandloom/engine/mediaref/uc"
)

// truncateContext handles POST /context/truncate.
//
// @Summary Truncate conversation history
// @Description Drop the oldest messages until the history fits the token budget.
// @Tags resolve
// @Accept json
// @Produce json
// @Param request body mrefrouter.TruncateRequest true "History payload"
// @Success 200 {object} router.Response{data=mrefuc.TruncateHistoryOutput} "History truncated"
// @Failure 400 {object} core.ProblemDocument "Invalid history payload"
// @Failure 500 {object} core.ProblemDocument "Internal server error"
// @Router /context/truncate [post]
func truncateContext(c *gin.Context) {
	req := router.GetRequestBody[TruncateRequest](c)
	if req == nil {
		return
	}
	ctx := c.Request.Context()
	history, err := conversation.DecodeHistory(ctx, req.History)
	if err != nil {
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrInvalidHistoryCode, err.Error())
		return
	}
	input := &mrefuc.TruncateHistoryInput{
		History:     history,
		TokenBudget: req.TokenBudget,
		HasNewMedia: req.HasNewMedia,
	}
	out, err := mrefuc.NewTruncateHistory(input).Execute(ctx)
	if err != nil {
		router.RespondProblemWithCode(c, http.StatusInternalServerError, router.ErrInternalCode, "failed to truncate history")
		return
	}
	router.RespondOK(c, "history truncated", out)
}
