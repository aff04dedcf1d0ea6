// internal/websocket/handler/notification.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
	service "caseflow-service/internal/service/notification"
	ws "caseflow-service/internal/websocket"
)

// NotificationHandler serves notification operations arriving over the
// websocket instead of REST. Every reply is tagged with the request's event
// type so the client can correlate.
type NotificationHandler struct {
	notificationService *service.Service
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *service.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// SupportedEvents returns events this handler supports
func (h *NotificationHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeNotificationRead,
		wstypes.EventTypeNotificationReadAll,
		wstypes.EventTypeNotificationList,
		wstypes.EventTypeNotificationCount,
	}
}

// HandleMessage processes notification-related messages
func (h *NotificationHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeNotificationRead:
		return h.handleMarkAsRead(ctx, client, msg)

	case wstypes.EventTypeNotificationReadAll:
		return h.handleMarkAllAsRead(ctx, client)

	case wstypes.EventTypeNotificationList:
		return h.handleListNotifications(ctx, client, msg)

	case wstypes.EventTypeNotificationCount:
		return h.handleGetCount(ctx, client)

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

// handleMarkAsRead marks a single notification as read and pushes back the
// refreshed unread count.
func (h *NotificationHandler) handleMarkAsRead(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req struct {
		NotificationID string `json:"notification_id"`
	}

	if err := mapToStruct(msg.Data, &req); err != nil || req.NotificationID == "" {
		client.SendError("invalid_request", "Invalid mark as read request", "notification_id is required")
		return nil
	}

	// Ownership check before the write; the read flag is per recipient.
	if _, err := h.notificationService.GetByID(ctx, req.NotificationID, client.UserID()); err != nil {
		client.SendError("mark_read_failed", "Notification not found", err.Error())
		return nil
	}

	if err := h.notificationService.MarkAsRead(ctx, req.NotificationID); err != nil {
		client.SendError("mark_read_failed", "Failed to mark notification as read", err.Error())
		return nil
	}

	count, err := h.notificationService.UnreadCount(ctx, client.UserID())
	if err != nil {
		h.logger.Warn("failed to get unread count", zap.Error(err))
		count = 0
	}

	client.Send(wstypes.NewMessage(wstypes.EventTypeNotificationRead, map[string]interface{}{
		"notification_id": req.NotificationID,
		"success":         true,
		"unread_count":    count,
	}))

	return nil
}

// handleMarkAllAsRead marks every unread notification of the user as read.
func (h *NotificationHandler) handleMarkAllAsRead(ctx context.Context, client *ws.Client) error {
	updated, err := h.notificationService.MarkAllAsRead(ctx, client.UserID())
	if err != nil {
		client.SendError("mark_all_read_failed", "Failed to mark all as read", err.Error())
		return nil
	}

	client.Send(wstypes.NewMessage(wstypes.EventTypeNotificationReadAll, map[string]interface{}{
		"success":      true,
		"updated":      updated,
		"unread_count": 0,
	}))

	return nil
}

// handleListNotifications returns one page of the user's feed.
func (h *NotificationHandler) handleListNotifications(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req struct {
		Page       int  `json:"page"`
		Limit      int  `json:"limit"`
		UnreadOnly bool `json:"unread_only"`
	}

	if err := mapToStruct(msg.Data, &req); err != nil {
		client.SendError("invalid_request", "Invalid list request", err.Error())
		return nil
	}

	if req.Limit <= 0 || req.Limit > 50 {
		req.Limit = 10
	}

	result, err := h.notificationService.ListForRecipient(ctx, client.UserID(), &notification.NotificationListFilters{
		UnreadOnly: req.UnreadOnly,
		Page:       req.Page,
		PageSize:   req.Limit,
	})
	if err != nil {
		client.SendError("list_failed", "Failed to get notifications", err.Error())
		return nil
	}

	client.Send(wstypes.NewMessage(wstypes.EventTypeNotificationList, map[string]interface{}{
		"notifications": result.Items,
		"pagination":    result.Pagination,
	}))

	return nil
}

// handleGetCount returns unread notification count
func (h *NotificationHandler) handleGetCount(ctx context.Context, client *ws.Client) error {
	count, err := h.notificationService.UnreadCount(ctx, client.UserID())
	if err != nil {
		client.SendError("count_failed", "Failed to get unread count", err.Error())
		return nil
	}

	client.Send(wstypes.NewMessage(wstypes.EventTypeNotificationCount, map[string]interface{}{
		"unread_count": count,
	}))

	return nil
}

// Helper function to convert interface{} to struct
func mapToStruct(data interface{}, target interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}
