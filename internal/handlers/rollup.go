package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/mindgarden-backend/internal/services"
)

type RollupHandler struct {
	rollupService services.RollupService
}

func NewRollupHandler(rollupService services.RollupService) *RollupHandler {
	return &RollupHandler{rollupService: rollupService}
}

func (rh *RollupHandler) GetRollup(c *gin.Context) {
	rollup, err := rh.rollupService.GetRollup(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"rollup": rollup})
}

func (rh *RollupHandler) GetContextSummary(c *gin.Context) {
	summary, err := rh.rollupService.GetContextSummary(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"context_summary": summary})
}
