// Package apigateway pushes frames to API Gateway WebSocket connections
// through the management API (PostToConnection).
package apigateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// API is the subset of the management client the transport uses.
type API interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// ClientFactory builds a management client bound to one callback endpoint.
type ClientFactory func(endpoint string) API

// Transport caches one client per endpoint. Clients are safe for concurrent
// use so a warm Lambda container reuses them across invocations.
type Transport struct {
	mu      sync.Mutex
	clients map[string]API
	factory ClientFactory
}

func NewTransport(cfg aws.Config) *Transport {
	return NewTransportWithFactory(func(endpoint string) API {
		return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	})
}

func NewTransportWithFactory(factory ClientFactory) *Transport {
	return &Transport{
		clients: make(map[string]API),
		factory: factory,
	}
}

// EndpointFor derives the management endpoint from the request context of a
// WebSocket event. It returns "" when either part is missing.
func EndpointFor(domainName, stage string) string {
	domainName = strings.TrimSpace(domainName)
	stage = strings.Trim(strings.TrimSpace(stage), "/")
	if domainName == "" || stage == "" {
		return ""
	}
	return "https://" + domainName + "/" + stage
}

func (t *Transport) client(endpoint string) API {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[endpoint]
	if !ok {
		c = t.factory(endpoint)
		t.clients[endpoint] = c
	}
	return c
}

func (t *Transport) Send(ctx context.Context, endpoint, connectionID string, data []byte) error {
	if endpoint == "" {
		return fmt.Errorf("post to connection %s: %w: missing management endpoint", connectionID, errs.ErrTransientDelivery)
	}

	_, err := t.client(endpoint).PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	if err == nil {
		return nil
	}
	if isGone(err) {
		return fmt.Errorf("post to connection %s: %w: %w", connectionID, errs.ErrStaleConnection, err)
	}
	return fmt.Errorf("post to connection %s: %w: %w", connectionID, errs.ErrTransientDelivery, err)
}

func isGone(err error) bool {
	var gone *types.GoneException
	if errors.As(err, &gone) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusGone
}
