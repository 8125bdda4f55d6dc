package http_test

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	notificationhttp "github.com/saransh1220/notify-relay/internal/modules/notification/interfaces/http"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatcherStub struct {
	dispatchFn func(context.Context, domain.DispatchRequest) (domain.DeliverySummary, error)
	calls      int
}

func (s *dispatcherStub) Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.DeliverySummary, error) {
	s.calls++
	return s.dispatchFn(ctx, req)
}

type storeStub struct {
	listPendingFn func(context.Context, string, int, int) ([]domain.Notification, error)
	unreadCountFn func(context.Context, string) (int, error)
}

func (s storeStub) Append(context.Context, string, string) (string, error) { return "", nil }
func (s storeStub) ListAdmins(context.Context) ([]string, error)           { return nil, nil }
func (s storeStub) ListPending(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	return s.listPendingFn(ctx, userID, limit, offset)
}
func (s storeStub) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.unreadCountFn(ctx, userID)
}

func authedRequest(method, path, userID string) *stdhttp.Request {
	req := httptest.NewRequest(method, path, nil)
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserId, userID)
	return req.WithContext(ctx)
}

func newHandler(d *dispatcherStub, store storeStub) *notificationhttp.NotificationHandler {
	return notificationhttp.NewNotificationHandler(d, application.NewNotificationService(store), nil)
}

func TestNotificationHandler_Notify(t *testing.T) {
	d := &dispatcherStub{dispatchFn: func(_ context.Context, req domain.DispatchRequest) (domain.DeliverySummary, error) {
		assert.Equal(t, domain.Direct("u1"), req.Recipient)
		assert.Equal(t, "hello", req.Message)
		return domain.DeliverySummary{RecipientsNotified: 1, DeliveredCount: 2}, nil
	}}
	h := newHandler(d, storeStub{})

	w := httptest.NewRecorder()
	h.Notify(w, httptest.NewRequest(stdhttp.MethodPost, "/notifications", strings.NewReader(`{"userId":"u1","message":"hello"}`)))

	assert.Equal(t, stdhttp.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["recipientsNotified"])
	assert.Equal(t, float64(2), body["deliveredCount"])
	assert.NotContains(t, body, "failedRecipients")
}

func TestNotificationHandler_NotifyValidation(t *testing.T) {
	d := &dispatcherStub{}
	h := newHandler(d, storeStub{})

	w := httptest.NewRecorder()
	h.Notify(w, httptest.NewRequest(stdhttp.MethodPost, "/notifications", strings.NewReader(`{"userId":"u1"}`)))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"userId and message are required"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.NotifyAdmins(w, httptest.NewRequest(stdhttp.MethodPost, "/notifications/admins", strings.NewReader(`not json`)))
	assert.Equal(t, stdhttp.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, w.Body.String())

	assert.Zero(t, d.calls)
}

func TestNotificationHandler_NotifyAdminsStoreFailure(t *testing.T) {
	d := &dispatcherStub{dispatchFn: func(_ context.Context, req domain.DispatchRequest) (domain.DeliverySummary, error) {
		assert.Equal(t, domain.Admins(), req.Recipient)
		return domain.DeliverySummary{}, errs.ErrStoreUnavailable
	}}
	h := newHandler(d, storeStub{})

	w := httptest.NewRecorder()
	h.NotifyAdmins(w, httptest.NewRequest(stdhttp.MethodPost, "/notifications/admins", strings.NewReader(`{"message":"m"}`)))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","details":"store unavailable"}`, w.Body.String())
}

func TestNotificationHandler_ListAndCount(t *testing.T) {
	h := newHandler(&dispatcherStub{}, storeStub{
		listPendingFn: func(_ context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, 5, limit)
			assert.Equal(t, 2, offset)
			return []domain.Notification{{ID: "n1", UserID: "u1", Message: "m"}}, nil
		},
		unreadCountFn: func(context.Context, string) (int, error) { return 3, nil },
	})

	w := httptest.NewRecorder()
	h.ListNotifications(w, httptest.NewRequest(stdhttp.MethodGet, "/notifications", nil))
	assert.Equal(t, stdhttp.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.ListNotifications(w, authedRequest(stdhttp.MethodGet, "/notifications?limit=5&offset=2", "u1"))
	assert.Equal(t, stdhttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data"`)
	assert.Contains(t, w.Body.String(), `"userId":"u1"`)

	w = httptest.NewRecorder()
	h.UnreadCount(w, authedRequest(stdhttp.MethodGet, "/notifications/unread-count", "u1"))
	assert.Equal(t, stdhttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":3}`, w.Body.String())
}

func TestNotificationHandler_ReadErrors(t *testing.T) {
	h := newHandler(&dispatcherStub{}, storeStub{
		listPendingFn: func(context.Context, string, int, int) ([]domain.Notification, error) {
			return nil, errs.ErrStoreUnavailable
		},
		unreadCountFn: func(context.Context, string) (int, error) { return 0, errs.ErrStoreUnavailable },
	})

	w := httptest.NewRecorder()
	h.ListNotifications(w, authedRequest(stdhttp.MethodGet, "/notifications", "u1"))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	h.UnreadCount(w, httptest.NewRequest(stdhttp.MethodGet, "/notifications/unread-count", nil))
	assert.Equal(t, stdhttp.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.UnreadCount(w, authedRequest(stdhttp.MethodGet, "/notifications/unread-count", "u1"))
	assert.Equal(t, stdhttp.StatusInternalServerError, w.Code)
}
