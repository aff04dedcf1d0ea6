// internal/handlers/events/events_handler.go
package events

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"caseflow-service/internal/domain/caseparty"
	"caseflow-service/internal/middleware"
	xerrors "caseflow-service/internal/pkg/errors"
	"caseflow-service/internal/pkg/response"
	"caseflow-service/internal/service/dispatch"
	"caseflow-service/internal/service/fanout"
)

// EventsHandler receives case-lifecycle events from the case-management
// subsystem and hands them to the delivery orchestrator.
type EventsHandler struct {
	orchestrator *dispatch.Orchestrator
	logger       *zap.Logger
}

func NewEventsHandler(orchestrator *dispatch.Orchestrator, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type dispatchRequest struct {
	Event   fanout.Event    `json:"event" binding:"required"`
	Parties caseparty.Graph `json:"parties"`
	Exclude []string        `json:"exclude,omitempty"`
}

type recipientResult struct {
	RecipientID    string `json:"recipient_id"`
	NotificationID string `json:"notification_id,omitempty"`
	Delivered      bool   `json:"delivered"`
	Error          string `json:"error,omitempty"`
}

// DispatchEvent resolves and delivers one event. The actor is always excluded
// from their own fan-out.
func (h *EventsHandler) DispatchEvent(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if req.Event.ActorID == "" {
		req.Event.ActorID = userID
	}
	exclude := append(req.Exclude, req.Event.ActorID)

	results, err := h.orchestrator.Dispatch(c.Request.Context(), req.Event, req.Parties, exclude)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, "invalid event", err)
			return
		}
		h.logger.Error("event dispatch failed",
			zap.String("kind", string(req.Event.Kind)),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "failed to dispatch event", err)
		return
	}

	out := make([]recipientResult, 0, len(results))
	delivered := 0
	for _, r := range results {
		rr := recipientResult{
			RecipientID: r.Target.RecipientID,
			Delivered:   r.Delivered,
		}
		if r.Notification != nil {
			rr.NotificationID = r.Notification.ID
		}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		if r.Delivered {
			delivered++
		}
		out = append(out, rr)
	}

	response.Success(c, http.StatusOK, "event dispatched", gin.H{
		"recipients": len(out),
		"delivered":  delivered,
		"results":    out,
	})
}
