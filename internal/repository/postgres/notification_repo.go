// internal/repository/postgres/notification_repo.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caseflow-service/internal/domain/notification"
	xerrors "caseflow-service/internal/pkg/errors"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, recipient_type, title, message, type,
		case_id, complaint_id, fir_id, is_read, priority, metadata, created_at, read_at, expires_at`

// Create inserts a new notification row. ID and CreatedAt are assigned by the
// caller so that the record handed to the push path is byte-identical to the
// persisted one.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, recipient_type, title, message, type,
			case_id, complaint_id, fir_id, priority, metadata, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12, $13)
	`

	var metadataJSON []byte
	var err error
	if n.Metadata != nil {
		metadataJSON, err = json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err = r.db.Exec(
		ctx, query,
		n.ID, n.RecipientID, n.RecipientType, n.Title, n.Message, n.Type,
		n.CaseID, n.ComplaintID, n.FIRID, n.Priority, metadataJSON, n.CreatedAt, n.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// FindByID retrieves a notification by ID
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*notification.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)

	n, err := scanNotification(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "notification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	return n, nil
}

// ListForRecipient retrieves a recipient's notifications sorted by creation
// time descending. Expired rows stay visible until the sweeper deletes them;
// the sweep is the only expiry mechanism.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, filters *notification.NotificationListFilters) ([]notification.Notification, int64, error) {
	conditions := []string{"recipient_id = $1"}
	args := []interface{}{recipientID}
	argPos := 2

	if filters.UnreadOnly {
		conditions = append(conditions, "is_read = false")
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notifications WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, notificationColumns, whereClause, argPos, argPos+1)

	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}

	return notifications, total, nil
}

// MarkAsRead flips is_read for a single notification. Idempotent: marking an
// already-read row succeeds without touching read_at.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = COALESCE(read_at, $1)
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.Wrap(xerrors.ErrNotFound, "notification not found")
	}

	return nil
}

// MarkAllAsRead marks every unread notification of a recipient as read and
// returns how many rows were updated.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE recipient_id = $2 AND is_read = false
	`

	result, err := r.db.Exec(ctx, query, time.Now(), recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountForRecipient counts every row owned by a recipient.
func (r *NotificationRepository) CountForRecipient(ctx context.Context, recipientID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return count, nil
}

// UnreadCount gets the count of unread notifications
func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE recipient_id = $1 AND is_read = false
	`

	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

// DeleteExpired removes every row whose expiry has passed. Deletion is atomic
// per row; concurrent readers never observe a torn record.
func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`

	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var metadataJSON []byte
	var caseID, complaintID, firID sql.NullString

	err := row.Scan(
		&n.ID, &n.RecipientID, &n.RecipientType, &n.Title, &n.Message, &n.Type,
		&caseID, &complaintID, &firID, &n.IsRead, &n.Priority,
		&metadataJSON, &n.CreatedAt, &n.ReadAt, &n.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	n.CaseID = caseID.String
	n.ComplaintID = complaintID.String
	n.FIRID = firID.String

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &n, nil
}
