package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vntam/chat-realtime-sub000/internal/notifier"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, publisher notifier.Publisher, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/notifier", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"mode": notifier.PublisherMode(publisher)})
	})
}
