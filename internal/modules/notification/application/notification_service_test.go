package application

import (
	"context"
	"testing"

	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageSpy struct {
	fakeStore
	limit, offset int
}

func (p *pageSpy) ListPending(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	p.limit, p.offset = limit, offset
	return p.fakeStore.ListPending(ctx, userID, limit, offset)
}

func TestNotificationService_ListPendingPaging(t *testing.T) {
	spy := &pageSpy{}
	spy.pending = []domain.Notification{{ID: "n1", UserID: "u1", Message: "m"}}
	svc := NewNotificationService(spy)
	ctx := context.Background()

	items, err := svc.ListPending(ctx, "u1", 0, -3)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, defaultPageSize, spy.limit)
	assert.Equal(t, 0, spy.offset)

	_, err = svc.ListPending(ctx, "u1", 1000, 40)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, spy.limit)
	assert.Equal(t, 40, spy.offset)
}

func TestNotificationService_UnreadCount(t *testing.T) {
	svc := NewNotificationService(&fakeStore{unread: 4})

	count, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = svc.UnreadCount(context.Background(), "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestNotificationService_StoreErrors(t *testing.T) {
	svc := NewNotificationService(&fakeStore{readErr: errs.ErrStoreUnavailable})

	_, err := svc.ListPending(context.Background(), "u1", 10, 0)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	_, err = svc.ListPending(context.Background(), "", 10, 0)
	assert.ErrorIs(t, err, errs.ErrValidation)
}
