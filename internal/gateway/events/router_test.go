package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	connapp "github.com/saransh1220/notify-relay/internal/modules/connection/application"
	"github.com/saransh1220/notify-relay/internal/modules/connection/infrastructure/persistence/memory"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	rows    []domain.Notification
	admins  []string
	failAll bool
}

func (s *memStore) Append(_ context.Context, userID, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return "", errs.ErrStoreUnavailable
	}
	id := fmt.Sprintf("n%d", len(s.rows)+1)
	s.rows = append(s.rows, domain.Notification{ID: id, UserID: userID, Message: message})
	return id, nil
}

func (s *memStore) ListAdmins(context.Context) ([]string, error) {
	if s.failAll {
		return nil, errs.ErrStoreUnavailable
	}
	return s.admins, nil
}

func (s *memStore) ListPending(context.Context, string, int, int) ([]domain.Notification, error) {
	return nil, nil
}

func (s *memStore) UnreadCount(context.Context, string) (int, error) { return 0, nil }

func (s *memStore) Rows() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.rows...)
}

type goneTransport struct {
	gone map[string]bool
}

func (t goneTransport) Send(_ context.Context, _, connectionID string, _ []byte) error {
	if t.gone[connectionID] {
		return errs.ErrStaleConnection
	}
	return nil
}

type fixture struct {
	registry *memory.ConnectionRepository
	store    *memStore
	router   *Router
}

func newFixture(gone ...string) *fixture {
	registry := memory.NewConnectionRepository()
	store := &memStore{}
	transport := goneTransport{gone: map[string]bool{}}
	for _, id := range gone {
		transport.gone[id] = true
	}

	connections := connapp.NewConnectionService(registry, nil, nil)
	dispatcher := application.NewDispatcher(
		application.NewResolver(store),
		connections,
		application.NewDeliverer(transport, time.Second, nil),
		store,
		application.DispatcherConfig{StoreTimeout: time.Second, Concurrency: 4},
		nil,
		nil,
	)
	return &fixture{
		registry: registry,
		store:    store,
		router:   NewRouter(connapp.NewLifecycle(connections), dispatcher, nil),
	}
}

func decode(t *testing.T, resp Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func TestRouter_ConnectDisconnect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp := f.router.Handle(ctx, Event{RouteKey: RouteConnect, ConnectionID: "c1", QueryParams: map[string]string{"userId": "u1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)

	ids, _ := f.registry.FindByUser(ctx, "u1")
	assert.Equal(t, []string{"c1"}, ids)

	resp = f.router.Handle(ctx, Event{RouteKey: RouteDisconnect, ConnectionID: "c1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = f.router.Handle(ctx, Event{RouteKey: RouteDisconnect, ConnectionID: "c1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ids, _ = f.registry.FindByUser(ctx, "u1")
	assert.Empty(t, ids)
}

func TestRouter_ConnectPrefersAuthenticatedUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp := f.router.Handle(ctx, Event{RouteKey: RouteConnect, ConnectionID: "c1", UserID: "jwt-user", QueryParams: map[string]string{"userId": "spoofed"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	owner, err := f.registry.UserOf(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "jwt-user", owner)
}

func TestRouter_ConnectWithoutUser(t *testing.T) {
	f := newFixture()

	resp := f.router.Handle(context.Background(), Event{RouteKey: RouteConnect, ConnectionID: "c1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, resp.Body)

	_, err := f.registry.UserOf(context.Background(), "c1")
	assert.ErrorIs(t, err, errs.ErrConnectionNotFound)
}

func TestRouter_SendNotificationStaleScenario(t *testing.T) {
	f := newFixture("c2")
	ctx := context.Background()
	require.NoError(t, f.registry.Register(ctx, "c1", "u1"))
	require.NoError(t, f.registry.Register(ctx, "c2", "u1"))

	resp := f.router.Handle(ctx, Event{
		RouteKey: RouteSendNotification,
		Body:     `{"action":"sendNotification","userId":"u1","message":"your order shipped"}`,
		Endpoint: "https://abc/dev",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["deliveredCount"])
	assert.Equal(t, float64(1), body["recipientsNotified"])

	ids, _ := f.registry.FindByUser(ctx, "u1")
	assert.Equal(t, []string{"c1"}, ids)

	rows := f.store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, "your order shipped", rows[0].Message)
}

func TestRouter_NotifyAdminWithoutConnections(t *testing.T) {
	f := newFixture()
	f.store.admins = []string{"a1", "a2"}

	resp := f.router.Handle(context.Background(), Event{RouteKey: RouteNotifyAdmin, Body: `{"message":"disk almost full"}`})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, float64(0), body["deliveredCount"])
	assert.Equal(t, float64(2), body["recipientsNotified"])
	assert.Len(t, f.store.Rows(), 2)
}

func TestRouter_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		ev      Event
		wantErr string
	}{
		{"missing message", Event{RouteKey: RouteSendNotification, Body: `{"userId":"u1"}`}, "userId and message are required"},
		{"missing body", Event{RouteKey: RouteSendNotification}, "Missing request body"},
		{"malformed body", Event{RouteKey: RouteSendNotification, Body: `{`}, "invalid request body"},
		{"admin missing message", Event{RouteKey: RouteNotifyAdmin, Body: `{"action":"notifyAdmin"}`}, "message is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			require.NoError(t, f.registry.Register(context.Background(), "c1", "u1"))

			resp := f.router.Handle(context.Background(), tt.ev)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, map[string]any{"error": tt.wantErr}, decode(t, resp))
			assert.Empty(t, f.store.Rows())
		})
	}
}

func TestRouter_StoreFailure(t *testing.T) {
	f := newFixture()
	f.store.failAll = true

	resp := f.router.Handle(context.Background(), Event{RouteKey: RouteNotifyAdmin, Body: `{"message":"m"}`})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "store unavailable", body["details"])
}

func TestRouter_PersistFailureReported(t *testing.T) {
	f := newFixture()
	f.store.failAll = true

	resp := f.router.Handle(context.Background(), Event{RouteKey: RouteSendNotification, Body: `{"userId":"u1","message":"m"}`})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, float64(0), body["recipientsNotified"])
	assert.Equal(t, []any{"u1"}, body["failedRecipients"])
}

func TestRouter_Default(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp := f.router.Handle(ctx, Event{RouteKey: RouteDefault, Body: `hello`})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Default handler response", decode(t, resp)["message"])

	resp = f.router.Handle(ctx, Event{RouteKey: RouteDefault, Body: `{"action":"sendNotification","userId":"u1","message":"m"}`})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{
		"message":  "Received in default handler - check routing",
		"action":   "sendNotification",
		"routeKey": "$default",
	}, decode(t, resp))
	assert.Empty(t, f.store.Rows())
}

type lifecycleStub struct{ err error }

func (l lifecycleStub) OnConnect(context.Context, string, string) error { return l.err }
func (l lifecycleStub) OnDisconnect(context.Context, string) error      { return l.err }

func TestRouter_LifecycleStoreFailure(t *testing.T) {
	r := NewRouter(lifecycleStub{err: fmt.Errorf("put item: %w: %w", errs.ErrStoreUnavailable, errors.New("throttled"))}, nil, nil)

	resp := r.Handle(context.Background(), Event{RouteKey: RouteConnect, ConnectionID: "c1", UserID: "u1"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, resp.Body)
	resp = r.Handle(context.Background(), Event{RouteKey: RouteDisconnect, ConnectionID: "c1"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
