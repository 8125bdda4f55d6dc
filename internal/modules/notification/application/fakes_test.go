package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

type appendCall struct {
	UserID  string
	Message string
}

type fakeStore struct {
	mu        sync.Mutex
	appends   []appendCall
	admins    []string
	adminsErr error
	failFor   map[string]bool
	pending   []domain.Notification
	unread    int
	readErr   error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (s *fakeStore) Append(_ context.Context, userID, message string) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[userID] {
		return "", errs.ErrStoreUnavailable
	}
	s.appends = append(s.appends, appendCall{UserID: userID, Message: message})
	return "id-" + userID, nil
}

func (s *fakeStore) ListAdmins(context.Context) ([]string, error) {
	if s.adminsErr != nil {
		return nil, s.adminsErr
	}
	return s.admins, nil
}

func (s *fakeStore) ListPending(_ context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.pending, nil
}

func (s *fakeStore) UnreadCount(context.Context, string) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.unread, nil
}

func (s *fakeStore) Appends() []appendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appendCall(nil), s.appends...)
}

type sentFrame struct {
	Endpoint     string
	ConnectionID string
	Data         []byte
}

// fakeTransport fails sends to connections listed in errs and records the rest.
type fakeTransport struct {
	mu   sync.Mutex
	errs map[string]error
	sent []sentFrame
	// attempted includes failed sends.
	attempted []string
}

func (t *fakeTransport) Send(_ context.Context, endpoint, connectionID string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempted = append(t.attempted, connectionID)
	if err := t.errs[connectionID]; err != nil {
		return err
	}
	t.sent = append(t.sent, sentFrame{Endpoint: endpoint, ConnectionID: connectionID, Data: data})
	return nil
}

func (t *fakeTransport) Attempted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.attempted...)
}

type failingIndex struct{}

func (failingIndex) FindByUser(context.Context, string) ([]string, error) {
	return nil, errs.ErrStoreUnavailable
}

func (failingIndex) DeleteStale(context.Context, string) error { return errs.ErrStoreUnavailable }
