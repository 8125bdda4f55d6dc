// Package wsgateway terminates WebSocket connections for self-hosted runs.
// It plays the part API Gateway plays in the Lambda deployment: it turns
// socket lifecycle and frames into router events and delivers pushes to
// the sockets it holds.
package wsgateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

type delivery struct {
	connectionID string
	data         []byte
	result       chan error
}

// nodeSeparator splits a connection id into the id of the node holding the
// socket and the socket's own id.
const nodeSeparator = "."

// Peers forwards pushes for sockets held by other nodes sharing the registry.
type Peers interface {
	Forward(ctx context.Context, nodeID, connectionID string, data []byte) error
}

// Hub maintains the set of live sockets and routes pushes to them.
type Hub struct {
	nodeID string
	peers  Peers

	// Registered clients by connection id.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Targeted pushes.
	deliver chan delivery

	log *logger.Logger

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once
}

// NewHub creates the hub of node nodeID (a random id when empty). peers may
// be nil, in which case pushes for other nodes' sockets fail as transient.
func NewHub(nodeID string, peers Peers, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	return &Hub{
		nodeID:     strings.ReplaceAll(nodeID, nodeSeparator, "-"),
		peers:      peers,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery),
		log:        log,
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	ctx := context.Background()
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			h.log.Debug(h.log.WithConnectionID(ctx, client.id), "socket registered")
		case client := <-h.unregister:
			if current, ok := h.clients[client.id]; ok && current == client {
				delete(h.clients, client.id)
				close(client.send)
				h.log.Debug(h.log.WithConnectionID(ctx, client.id), "socket unregistered")
			}
		case d := <-h.deliver:
			client, ok := h.clients[d.connectionID]
			if !ok {
				d.result <- fmt.Errorf("socket %s: %w", d.connectionID, errs.ErrStaleConnection)
				continue
			}
			select {
			case client.send <- d.data:
				d.result <- nil
			default:
				d.result <- fmt.Errorf("socket %s: %w: send buffer full", d.connectionID, errs.ErrTransientDelivery)
			}
		case <-h.stop:
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			return
		}
	}
}

func (h *Hub) NodeID() string {
	return h.nodeID
}

// NewConnectionID mints an id that names this node as the socket's owner.
func (h *Hub) NewConnectionID() string {
	return h.nodeID + nodeSeparator + uuid.NewString()
}

func nodeOf(connectionID string) string {
	node, _, ok := strings.Cut(connectionID, nodeSeparator)
	if !ok {
		return ""
	}
	return node
}

// Send queues data on the socket with the given id. The endpoint is ignored.
// Only sockets minted by this node can be reported stale; sockets of other
// nodes go through peers.
func (h *Hub) Send(ctx context.Context, _ string, connectionID string, data []byte) error {
	if node := nodeOf(connectionID); node != h.nodeID {
		if h.peers == nil || node == "" {
			return fmt.Errorf("socket %s: %w: held by node %q", connectionID, errs.ErrTransientDelivery, node)
		}
		return h.peers.Forward(ctx, node, connectionID, data)
	}
	return h.sendLocal(ctx, connectionID, data)
}

func (h *Hub) sendLocal(ctx context.Context, connectionID string, data []byte) error {
	d := delivery{connectionID: connectionID, data: data, result: make(chan error, 1)}
	select {
	case h.deliver <- d:
	case <-h.stop:
		return fmt.Errorf("socket %s: %w: hub stopped", connectionID, errs.ErrTransientDelivery)
	case <-ctx.Done():
		return fmt.Errorf("socket %s: %w: %w", connectionID, errs.ErrTransientDelivery, ctx.Err())
	}
	select {
	case err := <-d.result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("socket %s: %w: %w", connectionID, errs.ErrTransientDelivery, ctx.Err())
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.stop:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
