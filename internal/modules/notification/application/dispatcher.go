package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
	"github.com/saransh1220/notify-relay/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ConnectionIndex is the part of the connection registry the dispatcher needs.
type ConnectionIndex interface {
	FindByUser(ctx context.Context, userID string) ([]string, error)
	DeleteStale(ctx context.Context, connectionID string) error
}

// Recorder receives delivery metrics.
type Recorder interface {
	ObserveDelivery(outcome string)
	ObservePersistFailure()
	ObserveDispatch(recipient string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveDelivery(string)                {}
func (noopRecorder) ObservePersistFailure()                {}
func (noopRecorder) ObserveDispatch(string, time.Duration) {}

type DispatcherConfig struct {
	StoreTimeout time.Duration
	Concurrency  int
}

// Dispatcher fans a notification out to every live connection of every
// resolved recipient and writes one durable record per recipient whether or
// not any push succeeded.
type Dispatcher struct {
	resolver    *Resolver
	connections ConnectionIndex
	deliverer   *Deliverer
	store       domain.NotificationStore
	cfg         DispatcherConfig
	log         *logger.Logger
	metrics     Recorder
	now         func() time.Time
}

func NewDispatcher(
	resolver *Resolver,
	connections ConnectionIndex,
	deliverer *Deliverer,
	store domain.NotificationStore,
	cfg DispatcherConfig,
	log *logger.Logger,
	metrics Recorder,
) *Dispatcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 16
	}
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Dispatcher{
		resolver:    resolver,
		connections: connections,
		deliverer:   deliverer,
		store:       store,
		cfg:         cfg,
		log:         log,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type recipientResult struct {
	persisted bool
	delivered int
	stale     int
	failed    int
}

func (d *Dispatcher) Dispatch(ctx context.Context, req domain.DispatchRequest) (domain.DeliverySummary, error) {
	if req.Message == "" {
		return domain.DeliverySummary{}, errs.Validation("message is required")
	}
	if req.Action == "" {
		req.Action = domain.ActionSendNotification
	}
	start := time.Now()

	resolveCtx, cancel := d.storeContext(ctx)
	recipients, err := d.resolver.Resolve(resolveCtx, req.Recipient)
	cancel()
	if err != nil {
		if errors.Is(err, errs.ErrValidation) {
			return domain.DeliverySummary{}, err
		}
		if !errors.Is(err, errs.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", errs.ErrStoreUnavailable, err)
		}
		d.log.Error(ctx, "resolve recipients failed", err)
		return domain.DeliverySummary{}, fmt.Errorf("resolve recipients: %w", err)
	}

	results := make([]recipientResult, len(recipients))
	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Concurrency)
	for i, userID := range recipients {
		g.Go(func() error {
			results[i] = d.deliverTo(ctx, userID, req)
			return nil
		})
	}
	_ = g.Wait()

	summary := domain.DeliverySummary{}
	for i, res := range results {
		if res.persisted {
			summary.RecipientsNotified++
		} else {
			summary.PersistFailures = append(summary.PersistFailures, recipients[i])
		}
		summary.DeliveredCount += res.delivered
		summary.StaleCount += res.stale
		summary.FailedCount += res.failed
	}

	d.metrics.ObserveDispatch(req.Recipient.Label(), time.Since(start))
	d.log.Event(
		d.log.WithFields(ctx, map[string]any{
			"recipient":           req.Recipient.Label(),
			"recipients":          len(recipients),
			"recipients_notified": summary.RecipientsNotified,
			"delivered":           summary.DeliveredCount,
			"stale":               summary.StaleCount,
			"failed":              summary.FailedCount,
		}),
		"notification_dispatched",
		"notification dispatched",
	)
	return summary, nil
}

func (d *Dispatcher) deliverTo(ctx context.Context, userID string, req domain.DispatchRequest) recipientResult {
	ctx = d.log.WithUserID(ctx, userID)

	// The record is written alongside the pushes, never after them.
	appended := make(chan error, 1)
	go func() {
		storeCtx, cancel := d.storeContext(ctx)
		defer cancel()
		_, err := d.store.Append(storeCtx, userID, req.Message)
		appended <- err
	}()

	var res recipientResult
	payload, err := json.Marshal(domain.Envelope{
		Action:    req.Action,
		Message:   req.Message,
		UserID:    userID,
		CreatedAt: d.now(),
	})
	if err != nil {
		d.log.Error(ctx, "encode envelope failed", err)
	} else {
		res = d.pushAll(ctx, userID, req.Endpoint, payload)
	}

	if err := <-appended; err != nil {
		d.metrics.ObservePersistFailure()
		d.log.Error(ctx, "persist notification failed", err)
		return res
	}
	res.persisted = true
	return res
}

func (d *Dispatcher) pushAll(ctx context.Context, userID, endpoint string, payload []byte) recipientResult {
	var res recipientResult

	lookupCtx, cancel := d.storeContext(ctx)
	connectionIDs, err := d.connections.FindByUser(lookupCtx, userID)
	cancel()
	if err != nil {
		d.log.Warn(ctx, "connection lookup failed, treating user as offline", err)
		return res
	}
	if len(connectionIDs) == 0 {
		d.log.Debug(ctx, "no live connections, record only")
		return res
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(d.cfg.Concurrency)
	for _, connectionID := range connectionIDs {
		g.Go(func() error {
			outcome := d.deliverer.Push(ctx, endpoint, connectionID, payload)
			d.metrics.ObserveDelivery(string(outcome))
			if outcome == domain.OutcomeStale {
				reapCtx, cancel := d.storeContext(ctx)
				// The registry logs reap failures; the next push will retry.
				_ = d.connections.DeleteStale(reapCtx, connectionID)
				cancel()
			}

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case domain.OutcomeDelivered:
				res.delivered++
			case domain.OutcomeStale:
				res.stale++
			default:
				res.failed++
			}
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (d *Dispatcher) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.cfg.StoreTimeout)
}
