package application

import (
	"context"
	"errors"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

// Deliverer pushes one frame to one connection and classifies the result.
// It never touches the connection registry.
type Deliverer struct {
	transport domain.Transport
	timeout   time.Duration
	log       *logger.Logger
}

func NewDeliverer(transport domain.Transport, timeout time.Duration, log *logger.Logger) *Deliverer {
	if log == nil {
		log = logger.Nop()
	}
	return &Deliverer{transport: transport, timeout: timeout, log: log}
}

func (d *Deliverer) Push(ctx context.Context, endpoint, connectionID string, payload []byte) domain.DeliveryOutcome {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.transport.Send(ctx, endpoint, connectionID, payload)
	switch {
	case err == nil:
		return domain.OutcomeDelivered
	case errors.Is(err, errs.ErrStaleConnection):
		d.log.Debug(d.log.WithConnectionID(ctx, connectionID), "connection gone")
		return domain.OutcomeStale
	default:
		d.log.Warn(d.log.WithConnectionID(ctx, connectionID), "push failed", err)
		return domain.OutcomeTransientError
	}
}
