package wsgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/saransh1220/notify-relay/internal/gateway/events"
	"github.com/saransh1220/notify-relay/internal/gateway/middleware"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

const eventTimeout = 30 * time.Second

// EventHandler is satisfied by events.Router.
type EventHandler interface {
	Handle(ctx context.Context, ev events.Event) events.Response
}

type Gateway struct {
	hub      *Hub
	handler  EventHandler
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewGateway(hub *Hub, handler EventHandler, allowedOrigins string, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{
		hub:     hub,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowedOrigins string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
	}
}

// ServeWs handles GET /ws. The socket is added to the hub before it is
// registered so that no push can find the registry entry without a socket
// behind it. A rejected $connect fails the handshake with the route's
// status.
func (g *Gateway) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	client := newClient(g.hub, nil, g.hub.NewConnectionID(), userID)
	if client.userID == "" {
		client.userID = query["userId"]
	}
	if !g.hub.add(client) {
		http.Error(w, "gateway shutting down", http.StatusServiceUnavailable)
		return
	}

	resp := g.handler.Handle(r.Context(), events.Event{
		RouteKey:     events.RouteConnect,
		ConnectionID: client.id,
		UserID:       userID,
		QueryParams:  query,
		RequestID:    uuid.NewString(),
	})
	if resp.StatusCode != http.StatusOK {
		g.hub.remove(client)
		w.WriteHeader(resp.StatusCode)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn(g.log.WithConnectionID(r.Context(), client.id), "websocket upgrade failed", err)
		g.hub.remove(client)
		g.disconnect(client)
		return
	}
	client.conn = conn

	go client.writePump()
	go func() {
		client.readPump(func(frame []byte) { g.handleFrame(client, frame) })
		g.hub.remove(client)
		g.disconnect(client)
	}()
}

func (g *Gateway) handleFrame(client *Client, frame []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	resp := g.handler.Handle(ctx, events.Event{
		RouteKey:     routeFor(frame),
		ConnectionID: client.id,
		UserID:       client.userID,
		Body:         string(frame),
		RequestID:    uuid.NewString(),
	})
	if resp.Body == "" {
		return
	}
	if err := g.hub.Send(ctx, "", client.id, []byte(resp.Body)); err != nil {
		g.log.Debug(g.log.WithConnectionID(ctx, client.id), "route response dropped")
	}
}

func (g *Gateway) disconnect(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	g.handler.Handle(ctx, events.Event{
		RouteKey:     events.RouteDisconnect,
		ConnectionID: client.id,
		UserID:       client.userID,
		RequestID:    uuid.NewString(),
	})
}

// routeFor selects the route from the frame's "action" the way API Gateway's
// $request.body.action selection does. Lifecycle routes cannot be selected
// by a frame.
func routeFor(frame []byte) string {
	var msg struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(frame, &msg); err != nil {
		return events.RouteDefault
	}
	if msg.Action == "" || strings.HasPrefix(msg.Action, "$") {
		return events.RouteDefault
	}
	return msg.Action
}
