package mrefrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	// POST /api/v0/resolve
	// Resolve media references for one turn and budget-fit the history
	apiBase.POST("/resolve", resolveTurn)

	contextGroup := apiBase.Group("/context")
	{
		// POST /api/v0/context/truncate
		// Budget-fit an existing history without resolving references
		contextGroup.POST("/truncate", truncateContext)
	}
}
