package domain

import (
	"time"
)

// DeliveryOutcome is the result of a single push attempt. Never persisted.
type DeliveryOutcome string

const (
	OutcomeDelivered      DeliveryOutcome = "delivered"
	OutcomeStale          DeliveryOutcome = "stale"
	OutcomeTransientError DeliveryOutcome = "transient_error"
)

// ActionSendNotification is the envelope action clients listen for. Admin
// broadcasts use it too.
const ActionSendNotification = "sendNotification"

// Envelope is the JSON frame pushed to a client connection.
type Envelope struct {
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// DispatchRequest is one accepted notify request.
type DispatchRequest struct {
	Recipient RecipientSpec
	Message   string
	// Action is echoed in the pushed envelope.
	Action string
	// Endpoint is the management endpoint of the gateway that owns the
	// connections. Transports without one ignore it.
	Endpoint string
}

type DeliverySummary struct {
	RecipientsNotified int      `json:"recipientsNotified"`
	DeliveredCount     int      `json:"deliveredCount"`
	StaleCount         int      `json:"staleCount"`
	FailedCount        int      `json:"failedCount"`
	PersistFailures    []string `json:"persistFailures,omitempty"`
}
