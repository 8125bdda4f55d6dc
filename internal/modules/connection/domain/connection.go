package domain

import (
	"context"
	"time"
)

// Connection is one live transport session. A connection belongs to at most
// one user; a user may hold any number of connections.
type Connection struct {
	ConnectionID string    `json:"connectionId" dynamodbav:"connectionId"`
	UserID       string    `json:"userId,omitempty" dynamodbav:"userId,omitempty"`
	ConnectedAt  time.Time `json:"connectedAt" dynamodbav:"connectedAt"`
}

// Registry is the durable userId <-> connectionId mapping.
//
// Unregister must be an idempotent delete: a missing row is not an error, so a
// client disconnect racing a stale reap of the same connection is harmless.
type Registry interface {
	Register(ctx context.Context, connectionID, userID string) error
	Unregister(ctx context.Context, connectionID string) error
	FindByUser(ctx context.Context, userID string) ([]string, error)
	UserOf(ctx context.Context, connectionID string) (string, error)
}
