// internal/service/notification/service.go
package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"caseflow-service/internal/domain/notification"
	xerrors "caseflow-service/internal/pkg/errors"
)

// Repository is the persistence surface the store service needs. The pgx
// implementation lives in internal/repository/postgres.
type Repository interface {
	Create(ctx context.Context, n *notification.Notification) error
	FindByID(ctx context.Context, id string) (*notification.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
	CountForRecipient(ctx context.Context, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service owns the durable notification store: validation, identity
// assignment and read-state transitions. It never touches the push channel;
// live delivery is the orchestrator's job.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates the request, assigns id and creation time, and persists
// the record.
func (s *Service) Create(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = notification.PriorityNormal
	}

	n := &notification.Notification{
		ID:            ulid.Make().String(),
		RecipientID:   req.RecipientID,
		RecipientType: req.RecipientType,
		Title:         req.Title,
		Message:       req.Message,
		Type:          req.Type,
		CaseID:        req.CaseID,
		ComplaintID:   req.ComplaintID,
		FIRID:         req.FIRID,
		Priority:      priority,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now().UTC(),
	}
	if req.ExpiresAt != nil {
		n.ExpiresAt = sql.NullTime{Time: *req.ExpiresAt, Valid: true}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// GetByID retrieves a notification, enforcing recipient ownership.
func (s *Service) GetByID(ctx context.Context, id, recipientID string) (*notification.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if n.RecipientID != recipientID {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "notification not found")
	}

	return n, nil
}

// ListForRecipient returns one page of a recipient's feed, newest first.
func (s *Service) ListForRecipient(ctx context.Context, recipientID string, filters *notification.NotificationListFilters) (*notification.NotificationListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	items, total, err := s.repo.ListForRecipient(ctx, recipientID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &notification.NotificationListResponse{
		Items: items,
		Pagination: notification.PaginationInfo{
			CurrentPage: filters.Page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     filters.Page < totalPages,
			HasPrev:     filters.Page > 1,
		},
	}, nil
}

// MarkAsRead marks one notification read. Idempotent; unknown ids fail with
// ErrNotFound.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every unread record of a recipient read and returns how
// many were flipped. A recipient with no records at all is reported as not
// found.
func (s *Service) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	updated, err := s.repo.MarkAllAsRead(ctx, recipientID)
	if err != nil {
		return 0, err
	}

	if updated == 0 {
		total, err := s.repo.CountForRecipient(ctx, recipientID)
		if err != nil {
			return 0, err
		}
		if total == 0 {
			return 0, xerrors.Wrap(xerrors.ErrNotFound, "recipient has no notifications")
		}
	}

	return updated, nil
}

// UnreadCount gets the count of unread notifications
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return s.repo.UnreadCount(ctx, recipientID)
}

// SweepExpired deletes every record whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired notifications: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("swept expired notifications", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// RunSweeper periodically removes expired notifications until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.SweepExpired(ctx, now); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}
