package mrefrouter

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/engine/infra/server/router"
	"github.com/brandloom/brandloom/engine/media"
	mrefuc "github.com/brandloom/brandloom/engine/mediaref/uc"
)

// resolveTurn handles POST /resolve.
//
// @Summary Resolve media references for a turn
// @Description Resolve which media the utterance refers to, build the agent context and fit the history to the token budget.
// @Tags resolve
// @Accept json
// @Produce json
// @Param request body mrefrouter.ResolveRequest true "Turn payload"
// @Success 200 {object} router.Response{data=mrefuc.ResolveTurnOutput} "Turn resolved"
// @Failure 400 {object} core.ProblemDocument "Invalid history or uploads payload"
// @Failure 500 {object} core.ProblemDocument "Internal server error"
// @Router /resolve [post]
func resolveTurn(c *gin.Context) {
	req := router.GetRequestBody[ResolveRequest](c)
	if req == nil {
		return
	}
	ctx := c.Request.Context()
	history, err := conversation.DecodeHistory(ctx, req.History)
	if err != nil {
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrInvalidHistoryCode, err.Error())
		return
	}
	uploads, err := media.DecodeUploads(ctx, req.Uploads)
	if err != nil {
		router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrInvalidUploadsCode, err.Error())
		return
	}
	currentTurn := -1
	if req.CurrentTurn != nil {
		currentTurn = *req.CurrentTurn
	}
	input := &mrefuc.ResolveTurnInput{
		History:     history,
		Uploads:     uploads,
		Utterance:   req.Utterance,
		CurrentTurn: currentTurn,
		TokenBudget: req.TokenBudget,
	}
	out, err := mrefuc.NewResolveTurn(input).Execute(ctx)
	if err != nil {
		router.RespondProblemWithCode(c, http.StatusInternalServerError, router.ErrInternalCode, "failed to resolve turn")
		return
	}
	router.RespondOK(c, "turn resolved", out)
}
