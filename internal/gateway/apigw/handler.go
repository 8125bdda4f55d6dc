// Package apigw adapts API Gateway WebSocket proxy events to the event router.
package apigw

import (
	"context"
	"encoding/base64"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/saransh1220/notify-relay/internal/gateway/events"
	"github.com/saransh1220/notify-relay/internal/modules/notification/infrastructure/push/apigateway"
)

type EventHandler interface {
	Handle(ctx context.Context, ev events.Event) events.Response
}

type Handler struct {
	router EventHandler
}

func NewHandler(router EventHandler) *Handler {
	return &Handler{router: router}
}

// Handle is the Lambda entry point for every route of the WebSocket API.
func (h *Handler) Handle(ctx context.Context, req awsevents.APIGatewayWebsocketProxyRequest) (awsevents.APIGatewayProxyResponse, error) {
	resp := h.router.Handle(ctx, ToEvent(req))
	return awsevents.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       resp.Body,
	}, nil
}

func ToEvent(req awsevents.APIGatewayWebsocketProxyRequest) events.Event {
	rc := req.RequestContext
	body := req.Body
	if req.IsBase64Encoded && body != "" {
		if decoded, err := base64.StdEncoding.DecodeString(body); err == nil {
			body = string(decoded)
		}
	}
	routeKey := rc.RouteKey
	if routeKey == "" {
		routeKey = events.RouteDefault
	}
	return events.Event{
		RouteKey:     routeKey,
		ConnectionID: rc.ConnectionID,
		QueryParams:  req.QueryStringParameters,
		Body:         body,
		Endpoint:     apigateway.EndpointFor(rc.DomainName, rc.Stage),
		RequestID:    rc.RequestID,
	}
}
