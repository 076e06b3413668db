package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
)

// HandleHealth reports liveness of the API and its storage backend.
func (a *API) HandleHealth(c *gin.Context) {
	if err := a.store.Ping(c.Request.Context()); err != nil {
		logger.Get().Error("storage ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "storage unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
