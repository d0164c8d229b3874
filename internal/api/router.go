// Package api exposes the HTTP surface: summary listing, the manual
// refresh trigger, the seen flag, and the WebSocket notification
// endpoint.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"echoloop/internal/hub"
)

func NewRouter(h *Handler, hb *hub.Hub, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/summaries", h.ListSummaries)
		v1.POST("/refresh", h.Refresh)
		v1.PUT("/summaries/:id/seen", h.MarkSeen)
		v1.GET("/ws", NewWSHandler(hb, logger).Serve)
	}

	return r
}
