package domain

import (
	"time"
)

// Notification is the durable record written for every resolved recipient,
// whether or not a push reached them.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"userId"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"isRead" db:"isRead"`
	CreatedAt time.Time `json:"createdAt" db:"createdAt"`
}

// RoleAdmin is the "User"."role" value of administrators.
const RoleAdmin = "ADMIN"

type RecipientKind string

const (
	RecipientDirect RecipientKind = "direct"
	RecipientRole   RecipientKind = "role"
)

// RecipientSpec names who should receive a notification.
type RecipientSpec struct {
	Kind   RecipientKind
	UserID string
	Role   string
}

func Direct(userID string) RecipientSpec {
	return RecipientSpec{Kind: RecipientDirect, UserID: userID}
}

func Admins() RecipientSpec {
	return RecipientSpec{Kind: RecipientRole, Role: RoleAdmin}
}

// Label is used for metric and log labels.
func (r RecipientSpec) Label() string {
	if r.Kind == RecipientRole {
		return "role"
	}
	return "direct"
}
