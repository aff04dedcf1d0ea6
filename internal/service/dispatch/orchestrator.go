// internal/service/dispatch/orchestrator.go
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"caseflow-service/internal/domain/caseparty"
	"caseflow-service/internal/domain/notification"
	wstypes "caseflow-service/internal/domain/websocket"
	xerrors "caseflow-service/internal/pkg/errors"
	"caseflow-service/internal/service/fanout"
)

// Store persists per-recipient notification records.
type Store interface {
	Create(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// Gateway delivers a payload to a user's live channel, reporting an offline
// recipient as an error the orchestrator treats as non-fatal.
type Gateway interface {
	SendToUser(userID string, msg *wstypes.WSMessage) error
}

// Result is the outcome for one resolved recipient. Exactly one of
// Notification or Err is set; Delivered only reports the live push attempt
// and says nothing about durability, which the store record already covers.
type Result struct {
	Target       fanout.Target
	Notification *notification.Notification
	Delivered    bool
	Err          error
}

// Orchestrator fans a domain event out to its recipients: resolve, persist,
// then push. The persisted record always exists before the push attempt, so
// a crash between the two delays live delivery but never loses the
// notification.
type Orchestrator struct {
	store   Store
	gateway Gateway
	logger  *zap.Logger
}

func NewOrchestrator(store Store, gateway Gateway, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// Dispatch resolves the event against the party snapshot and processes each
// target in resolver order. Per-recipient validation failures are recorded
// and skipped; a store that cannot persist at all aborts the batch and the
// error surfaces to the caller. Push failures (recipient offline, dead
// channel) are logged and swallowed.
func (o *Orchestrator) Dispatch(ctx context.Context, ev fanout.Event, parties caseparty.Graph, exclude []string) ([]Result, error) {
	if !ev.Kind.Valid() {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, fmt.Sprintf("unknown event kind %q", ev.Kind))
	}

	targets := fanout.Resolve(ev, parties, exclude)
	results := make([]Result, 0, len(targets))

	delivered := 0
	for _, target := range targets {
		req := &notification.CreateNotificationRequest{
			RecipientID:   target.RecipientID,
			RecipientType: target.RecipientType,
			Title:         target.Title,
			Message:       target.Message,
			Type:          target.Type,
			CaseID:        ev.CaseID,
			ComplaintID:   ev.ComplaintID,
			FIRID:         ev.FIRID,
			Priority:      target.Priority,
			Metadata:      target.Metadata,
			ExpiresAt:     target.ExpiresAt,
		}

		n, err := o.store.Create(ctx, req)
		if err != nil {
			if errors.Is(err, xerrors.ErrInvalidInput) {
				o.logger.Warn("skipping invalid notification target",
					zap.String("recipient_id", target.RecipientID),
					zap.Error(err),
				)
				results = append(results, Result{Target: target, Err: err})
				continue
			}
			// Persistence is unavailable: abort the batch and surface to the
			// case-action handler, which decides whether to retry the whole
			// domain action.
			return results, fmt.Errorf("notification store unavailable: %w", err)
		}

		result := Result{Target: target, Notification: n}
		if err := o.gateway.SendToUser(n.RecipientID, notificationMessage(n)); err != nil {
			// Delivery miss: the persisted record is the durable fallback.
			o.logger.Debug("live delivery miss",
				zap.String("recipient_id", n.RecipientID),
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
		} else {
			result.Delivered = true
			delivered++
		}
		results = append(results, result)
	}

	o.logger.Info("event dispatched",
		zap.String("kind", string(ev.Kind)),
		zap.Int("recipients", len(targets)),
		zap.Int("delivered", delivered),
	)

	return results, nil
}

// notificationMessage mirrors a persisted record onto the wire, id included.
func notificationMessage(n *notification.Notification) *wstypes.WSMessage {
	return wstypes.NewMessage(wstypes.EventTypeNotification, &wstypes.NotificationData{
		ID:            n.ID,
		Title:         n.Title,
		Message:       n.Message,
		Type:          string(n.Type),
		IsRead:        n.IsRead,
		CaseID:        n.CaseID,
		ComplaintID:   n.ComplaintID,
		FIRID:         n.FIRID,
		Metadata:      n.Metadata,
		Priority:      string(n.Priority),
		CreatedAt:     n.CreatedAt,
		RecipientType: string(n.RecipientType),
	})
}
