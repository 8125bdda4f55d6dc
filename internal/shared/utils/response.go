package utils

import (
	"encoding/json"
	"net/http"

	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message} and, when err is non-nil, its text as "details".
func WriteError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	WriteJSON(w, status, body)
}

// ErrorResponse maps a domain error onto a status and JSON body. Client
// errors carry their validation message; server errors only expose the
// error category.
func ErrorResponse(err error) (int, map[string]string) {
	status := errs.StatusCode(err)
	if status < http.StatusInternalServerError {
		return status, map[string]string{"error": errs.PublicMessage(err, http.StatusText(status))}
	}
	body := map[string]string{"error": "Internal server error"}
	if public := errs.Public(err); public != nil {
		body["details"] = public.Error()
	}
	return status, body
}

// WriteDomainError writes the ErrorResponse of err.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, body := ErrorResponse(err)
	WriteJSON(w, status, body)
}
