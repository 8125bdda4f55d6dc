package wsgateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

type forwardedPush struct {
	ConnectionID string `json:"connectionId"`
	Data         []byte `json:"data"`
}

// RedisPeers forwards pushes between nodes over Redis pub/sub. Every node
// listens on its own channel; a node with no listener is gone, and so are
// the sockets it held.
type RedisPeers struct {
	client redis.UniversalClient
	prefix string
	log    *logger.Logger
}

func NewRedisPeers(client redis.UniversalClient, prefix string, log *logger.Logger) *RedisPeers {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisPeers{client: client, prefix: prefix, log: log}
}

func (p *RedisPeers) channel(nodeID string) string {
	return p.prefix + "node:" + nodeID
}

func (p *RedisPeers) Forward(ctx context.Context, nodeID, connectionID string, data []byte) error {
	payload, err := json.Marshal(forwardedPush{ConnectionID: connectionID, Data: data})
	if err != nil {
		return fmt.Errorf("socket %s: %w: %w", connectionID, errs.ErrTransientDelivery, err)
	}

	receivers, err := p.client.Publish(ctx, p.channel(nodeID), payload).Result()
	if err != nil {
		return fmt.Errorf("socket %s: %w: forward to node %s: %w", connectionID, errs.ErrTransientDelivery, nodeID, err)
	}
	if receivers == 0 {
		return fmt.Errorf("socket %s: %w: node %s is not listening", connectionID, errs.ErrStaleConnection, nodeID)
	}
	return nil
}

// Listen delivers pushes forwarded to hub's node until ctx is cancelled.
func (p *RedisPeers) Listen(ctx context.Context, hub *Hub) error {
	channel := p.channel(hub.NodeID())
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	p.log.Info(p.log.WithField(ctx, "channel", channel), "listening for forwarded pushes")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			p.deliver(ctx, hub, msg.Payload)
		}
	}
}

func (p *RedisPeers) deliver(ctx context.Context, hub *Hub, payload string) {
	var push forwardedPush
	if err := json.Unmarshal([]byte(payload), &push); err != nil {
		p.log.Warn(ctx, "dropping malformed forwarded push", err)
		return
	}
	// Sockets closed here unregister themselves; a miss only needs a log line.
	if err := hub.sendLocal(ctx, push.ConnectionID, push.Data); err != nil {
		p.log.Debug(p.log.WithConnectionID(ctx, push.ConnectionID), "forwarded push not delivered")
	}
}
