package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// PgNotificationRepository stores notifications in the "Notification" table
// and reads admins from "User". Column names are quoted camelCase to match
// the schema shared with the web application.
type PgNotificationRepository struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

func NewPgNotificationRepository(db *sqlx.DB) *PgNotificationRepository {
	return &PgNotificationRepository{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (r *PgNotificationRepository) Append(ctx context.Context, userID, message string) (string, error) {
	n := domain.Notification{
		ID:        r.newID(),
		UserID:    userID,
		Message:   message,
		IsRead:    false,
		CreatedAt: r.now(),
	}
	query := `
		INSERT INTO "Notification" ("id", "userId", "message", "isRead", "createdAt")
		VALUES (:id, :userId, :message, :isRead, :createdAt)
	`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return "", fmt.Errorf("insert notification: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return n.ID, nil
}

func (r *PgNotificationRepository) ListAdmins(ctx context.Context) ([]string, error) {
	query := `SELECT "id" FROM "User" WHERE "role" = $1`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, domain.RoleAdmin); err != nil {
		return nil, fmt.Errorf("list admins: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return ids, nil
}

func (r *PgNotificationRepository) ListPending(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	query := `
		SELECT "id", "userId", "message", "isRead", "createdAt" FROM "Notification"
		WHERE "userId" = $1 AND "isRead" = FALSE
		ORDER BY "createdAt" DESC
		LIMIT $2 OFFSET $3
	`
	notifications := []domain.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list pending notifications: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return notifications, nil
}

func (r *PgNotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM "Notification"
		WHERE "userId" = $1 AND "isRead" = FALSE
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w: %w", errs.ErrStoreUnavailable, err)
	}
	return count, nil
}
