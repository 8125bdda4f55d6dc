package application

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// SendNotificationRequest is the body of a direct notify request. Extra
// fields such as the routing "action" are ignored.
type SendNotificationRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (r SendNotificationRequest) Dispatch(endpoint string) domain.DispatchRequest {
	return domain.DispatchRequest{
		Recipient: domain.Direct(r.UserID),
		Message:   r.Message,
		Action:    domain.ActionSendNotification,
		Endpoint:  endpoint,
	}
}

// NotifyAdminRequest is the body of an admin broadcast.
type NotifyAdminRequest struct {
	Message string `json:"message" validate:"required"`
}

func (r NotifyAdminRequest) Dispatch(endpoint string) domain.DispatchRequest {
	return domain.DispatchRequest{
		Recipient: domain.Admins(),
		Message:   r.Message,
		Action:    domain.ActionSendNotification,
		Endpoint:  endpoint,
	}
}

func ParseSendNotification(body []byte) (SendNotificationRequest, error) {
	var req SendNotificationRequest
	if err := decodeBody(body, &req); err != nil {
		return req, err
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if strings.TrimSpace(req.Message) == "" {
		req.Message = ""
	}
	if err := validate.Struct(req); err != nil {
		return req, errs.Validation("userId and message are required")
	}
	return req, nil
}

func ParseNotifyAdmin(body []byte) (NotifyAdminRequest, error) {
	var req NotifyAdminRequest
	if err := decodeBody(body, &req); err != nil {
		return req, err
	}
	if strings.TrimSpace(req.Message) == "" {
		req.Message = ""
	}
	if err := validate.Struct(req); err != nil {
		return req, errs.Validation("message is required")
	}
	return req, nil
}

func decodeBody(body []byte, dest any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errs.Validation("Missing request body")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errs.Validation("invalid request body")
	}
	return nil
}

// DispatchResponse is the success body returned to whoever triggered a
// notification.
type DispatchResponse struct {
	Success            bool     `json:"success"`
	RecipientsNotified int      `json:"recipientsNotified"`
	DeliveredCount     int      `json:"deliveredCount"`
	StaleCount         int      `json:"staleCount"`
	FailedRecipients   []string `json:"failedRecipients,omitempty"`
}

func NewDispatchResponse(summary domain.DeliverySummary) DispatchResponse {
	return DispatchResponse{
		Success:            true,
		RecipientsNotified: summary.RecipientsNotified,
		DeliveredCount:     summary.DeliveredCount,
		StaleCount:         summary.StaleCount,
		FailedRecipients:   summary.PersistFailures,
	}
}
