// internal/app/router.go
package app

import (
	eventsHandler "caseflow-service/internal/handlers/events"
	notifyHandler "caseflow-service/internal/handlers/notification"
	wsHandler "caseflow-service/internal/handlers/websocket"
	"caseflow-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	NotifHandler   *notifyHandler.NotificationHandler
	EventsHandler  *eventsHandler.EventsHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	notifications.Use(h.AuthMiddleware.Auth())
	{
		notifications.GET("", h.NotifHandler.GetNotifications)
		notifications.GET("/:id", h.NotifHandler.GetNotification)
		notifications.GET("/count/unread", h.NotifHandler.GetUnreadCount)
		notifications.PUT("/:id/read", h.NotifHandler.MarkAsRead)
		notifications.PUT("/read-all", h.NotifHandler.MarkAllAsRead)
	}

	// ==================== Case Events ====================
	// Fan-out entry point for the case-management subsystem. Citizens never
	// emit lifecycle events directly.
	events := api.Group("/events")
	events.Use(h.AuthMiddleware.StaffOnly()...)
	{
		events.POST("", h.EventsHandler.DispatchEvent)
	}

	// ==================== Ops ====================
	ws := api.Group("/ws")
	ws.Use(h.AuthMiddleware.StaffOnly()...)
	{
		ws.GET("/stats", h.WSHandler.GetStats)
		ws.POST("/alert", h.WSHandler.BroadcastAlert)
	}
}
