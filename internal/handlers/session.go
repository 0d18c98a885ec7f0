package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/services"
)

type SessionHandler struct {
	log            *logger.Logger
	sessionService services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessionService services.SessionService) *SessionHandler {
	handlerLog := log.With("handler", "SessionHandler")
	return &SessionHandler{log: handlerLog, sessionService: sessionService}
}

func (sh *SessionHandler) Submit(c *gin.Context) {
	var input services.SubmitSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, err := sh.sessionService.Submit(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (sh *SessionHandler) ListRecent(c *gin.Context) {
	sessions, err := sh.sessionService.ListRecent(c.Request.Context(), c.Query("game"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (sh *SessionHandler) Latest(c *gin.Context) {
	session, err := sh.sessionService.LatestSession(c.Request.Context(), c.Query("game"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}
