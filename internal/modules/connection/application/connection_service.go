package application

import (
	"context"
	"strings"

	"github.com/saransh1220/notify-relay/internal/modules/connection/domain"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventStaleReap  = "stale_reap"
)

// Recorder receives registry mutation counts.
type Recorder interface {
	ObserveConnectionEvent(event string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveConnectionEvent(string) {}

// ConnectionService is the ConnectionRegistry as the rest of the relay sees
// it: the backend store plus logging and metrics for each mutation.
type ConnectionService struct {
	registry domain.Registry
	log      *logger.Logger
	metrics  Recorder
}

func NewConnectionService(registry domain.Registry, log *logger.Logger, metrics Recorder) *ConnectionService {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &ConnectionService{registry: registry, log: log, metrics: metrics}
}

func (s *ConnectionService) Register(ctx context.Context, connectionID, userID string) error {
	ctx = s.log.WithConnectionID(ctx, connectionID)
	if err := s.registry.Register(ctx, connectionID, strings.TrimSpace(userID)); err != nil {
		s.log.Error(ctx, "register connection failed", err)
		return err
	}
	s.metrics.ObserveConnectionEvent(EventConnect)
	s.log.Event(s.log.WithUserID(ctx, userID), "connection_registered", "connection registered")
	return nil
}

func (s *ConnectionService) Unregister(ctx context.Context, connectionID string) error {
	ctx = s.log.WithConnectionID(ctx, connectionID)
	if err := s.registry.Unregister(ctx, connectionID); err != nil {
		s.log.Error(ctx, "unregister connection failed", err)
		return err
	}
	s.metrics.ObserveConnectionEvent(EventDisconnect)
	s.log.Event(ctx, "connection_closed", "client disconnected")
	return nil
}

// DeleteStale removes a connection the push transport reported as gone. It is
// the same delete as Unregister but logged and counted separately.
func (s *ConnectionService) DeleteStale(ctx context.Context, connectionID string) error {
	ctx = s.log.WithConnectionID(ctx, connectionID)
	if err := s.registry.Unregister(ctx, connectionID); err != nil {
		s.log.Warn(ctx, "stale connection reap failed", err)
		return err
	}
	s.metrics.ObserveConnectionEvent(EventStaleReap)
	s.log.Event(ctx, "stale_connection_reaped", "stale connection deleted")
	return nil
}

func (s *ConnectionService) FindByUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.registry.FindByUser(ctx, userID)
	if err != nil {
		s.log.Error(s.log.WithUserID(ctx, userID), "find connections failed", err)
		return nil, err
	}
	return ids, nil
}

func (s *ConnectionService) UserOf(ctx context.Context, connectionID string) (string, error) {
	return s.registry.UserOf(ctx, connectionID)
}
