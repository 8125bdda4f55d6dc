// Package events routes WebSocket gateway events (connect, disconnect and
// named actions) to the relay's operations. The Lambda adapter and the
// self-hosted gateway both feed it.
package events

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/saransh1220/notify-relay/internal/shared/utils"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

const (
	RouteConnect          = "$connect"
	RouteDisconnect       = "$disconnect"
	RouteDefault          = "$default"
	RouteSendNotification = "sendNotification"
	RouteNotifyAdmin      = "notifyAdmin"
)

// Event is a transport-neutral gateway event.
type Event struct {
	RouteKey     string
	ConnectionID string
	// UserID is set when the gateway already authenticated the caller.
	UserID      string
	QueryParams map[string]string
	Body        string
	// Endpoint is the management endpoint pushes should go through.
	Endpoint  string
	RequestID string
}

type Response struct {
	StatusCode int
	Body       string
}

type Lifecycle interface {
	OnConnect(ctx context.Context, connectionID, userID string) error
	OnDisconnect(ctx context.Context, connectionID string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.DeliverySummary, error)
}

type Router struct {
	lifecycle  Lifecycle
	dispatcher Dispatcher
	log        *logger.Logger
}

func NewRouter(lifecycle Lifecycle, dispatcher Dispatcher, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{lifecycle: lifecycle, dispatcher: dispatcher, log: log}
}

func (r *Router) Handle(ctx context.Context, ev Event) Response {
	ctx = r.log.WithFields(ctx, map[string]any{
		"route":         ev.RouteKey,
		"connection_id": ev.ConnectionID,
		"request_id":    ev.RequestID,
	})

	switch ev.RouteKey {
	case RouteConnect:
		return r.connect(ctx, ev)
	case RouteDisconnect:
		return r.disconnect(ctx, ev)
	case RouteSendNotification:
		req, err := application.ParseSendNotification([]byte(ev.Body))
		if err != nil {
			return errorResponse(err)
		}
		return r.dispatch(ctx, req.Dispatch(ev.Endpoint))
	case RouteNotifyAdmin:
		req, err := application.ParseNotifyAdmin([]byte(ev.Body))
		if err != nil {
			return errorResponse(err)
		}
		return r.dispatch(ctx, req.Dispatch(ev.Endpoint))
	default:
		return r.fallback(ctx, ev)
	}
}

func (r *Router) connect(ctx context.Context, ev Event) Response {
	userID := ev.UserID
	if userID == "" {
		userID = ev.QueryParams["userId"]
	}
	// $connect answers with a bare status; the handshake carries no body.
	if err := r.lifecycle.OnConnect(ctx, ev.ConnectionID, userID); err != nil {
		status := errs.StatusCode(err)
		if status >= http.StatusInternalServerError {
			r.log.Error(ctx, "connect rejected", err)
		} else {
			r.log.Warn(ctx, "connect rejected", err)
		}
		return Response{StatusCode: status}
	}
	return Response{StatusCode: http.StatusOK}
}

func (r *Router) disconnect(ctx context.Context, ev Event) Response {
	if err := r.lifecycle.OnDisconnect(ctx, ev.ConnectionID); err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, map[string]string{"message": "Disconnected"})
}

func (r *Router) dispatch(ctx context.Context, req domain.DispatchRequest) Response {
	summary, err := r.dispatcher.Dispatch(ctx, req)
	if err != nil {
		if errs.StatusCode(err) >= http.StatusInternalServerError {
			r.log.Error(ctx, "dispatch failed", err)
		}
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, application.NewDispatchResponse(summary))
}

// fallback answers unmatched routes. A body naming a known action means
// the gateway's route selection is misconfigured.
func (r *Router) fallback(ctx context.Context, ev Event) Response {
	var body struct {
		Action string `json:"action"`
	}
	if ev.Body != "" && json.Unmarshal([]byte(ev.Body), &body) == nil {
		switch body.Action {
		case RouteSendNotification, RouteNotifyAdmin:
			r.log.Warn(r.log.WithField(ctx, "action", body.Action), "known action reached the default route, check route selection", nil)
			return jsonResponse(http.StatusOK, map[string]string{
				"message":  "Received in default handler - check routing",
				"action":   body.Action,
				"routeKey": ev.RouteKey,
			})
		}
	}
	r.log.Info(ctx, "unmatched route")
	return jsonResponse(http.StatusOK, map[string]string{"message": "Default handler response"})
}

func errorResponse(err error) Response {
	status, body := utils.ErrorResponse(err)
	return jsonResponse(status, body)
}

func jsonResponse(status int, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{StatusCode: http.StatusInternalServerError, Body: `{"error":"Internal server error"}`}
	}
	return Response{StatusCode: status, Body: string(data)}
}
