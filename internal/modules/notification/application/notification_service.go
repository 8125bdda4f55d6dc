package application

import (
	"context"

	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NotificationService serves the pending-notification read path.
type NotificationService struct {
	store domain.NotificationStore
}

func NewNotificationService(store domain.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) ListPending(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	if userID == "" {
		return nil, errs.Validation("userId is required")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListPending(ctx, userID, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, errs.Validation("userId is required")
	}
	return s.store.UnreadCount(ctx, userID)
}
