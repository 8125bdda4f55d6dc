package domain

import (
	"context"
)

// NotificationStore is the relational store of record.
type NotificationStore interface {
	Append(ctx context.Context, userID, message string) (string, error)
	ListAdmins(ctx context.Context) ([]string, error)
	ListPending(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Transport sends one frame to one connection. Implementations return an
// error wrapping errs.ErrStaleConnection when the connection no longer exists.
type Transport interface {
	Send(ctx context.Context, endpoint, connectionID string, data []byte) error
}
