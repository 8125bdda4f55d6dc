package application

import (
	"context"
	"strings"

	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// Lifecycle handles the transport's connect and disconnect events.
type Lifecycle struct {
	connections *ConnectionService
}

func NewLifecycle(connections *ConnectionService) *Lifecycle {
	return &Lifecycle{connections: connections}
}

// OnConnect records a new connection. A user id is required.
func (l *Lifecycle) OnConnect(ctx context.Context, connectionID, userID string) error {
	if strings.TrimSpace(connectionID) == "" {
		return errs.Validation("connectionId is required")
	}
	if strings.TrimSpace(userID) == "" {
		return errs.Validation("userId is required")
	}
	return l.connections.Register(ctx, connectionID, userID)
}

// OnDisconnect forgets the connection. Disconnecting an unknown connection
// succeeds.
func (l *Lifecycle) OnDisconnect(ctx context.Context, connectionID string) error {
	if strings.TrimSpace(connectionID) == "" {
		return errs.Validation("connectionId is required")
	}
	return l.connections.Unregister(ctx, connectionID)
}
