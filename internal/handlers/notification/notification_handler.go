// internal/handlers/notification/notification_handler.go
package notification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
	"caseflow-service/internal/middleware"
	xerrors "caseflow-service/internal/pkg/errors"
	"caseflow-service/internal/pkg/response"
	service "caseflow-service/internal/service/notification"
	ws "caseflow-service/internal/websocket"
)

type NotificationHandler struct {
	notificationService *service.Service
	hub                 *ws.Hub
}

func NewNotificationHandler(notificationService *service.Service, hub *ws.Hub) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		hub:                 hub,
	}
}

// GetNotifications retrieves paginated notifications for the current user.
// This is the catch-up path after a reconnect: page through what was missed,
// newest first.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var filters notification.NotificationListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	result, err := h.notificationService.ListForRecipient(c.Request.Context(), userID, &filters)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get notifications", err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", result)
}

// GetNotification retrieves a single notification by ID
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	n, err := h.notificationService.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "notification not found", err)
		return
	}

	response.Success(c, http.StatusOK, "notification retrieved", n)
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	// Ownership check; the read flag is per recipient.
	if _, err := h.notificationService.GetByID(c.Request.Context(), c.Param("id"), userID); err != nil {
		response.Error(c, http.StatusNotFound, "notification not found", err)
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to mark as read", err)
		return
	}

	count, _ := h.notificationService.UnreadCount(c.Request.Context(), userID)
	h.pushUnreadCount(userID, count)

	response.Success(c, http.StatusOK, "notification marked as read", gin.H{
		"unread_count": count,
	})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	updated, err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "no notifications found", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to mark all as read", err)
		return
	}

	h.pushUnreadCount(userID, 0)

	response.Success(c, http.StatusOK, "all notifications marked as read", gin.H{
		"updated":      updated,
		"unread_count": 0,
	})
}

// GetUnreadCount gets the count of unread notifications
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get unread count", err)
		return
	}

	response.Success(c, http.StatusOK, "unread count retrieved", gin.H{
		"unread_count": count,
	})
}

// pushUnreadCount mirrors a read-state change onto the user's live channel so
// any open client can refresh its badge. Offline is fine here.
func (h *NotificationHandler) pushUnreadCount(userID string, count int) {
	_ = h.hub.SendToUser(userID, wstypes.NewMessage(wstypes.EventTypeNotificationCount, map[string]interface{}{
		"unread_count": count,
	}))
}
