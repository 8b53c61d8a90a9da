package notify

import (
	"context"
	"time"

	"github.com/celar-labs/celar/internal/logging"
)

// Dispatcher decouples the request path from slow sinks. Events wait in a
// bounded queue and a single worker hands them to the notifier, at most
// once each. Failed deliveries are logged and forgotten.
type Dispatcher struct {
	notifier Notifier
	queue    chan Event
	timeout  time.Duration
	logger   logging.Logger
}

// NewDispatcher creates a dispatcher with room for size pending events.
// Each delivery is bounded by timeout when it is positive.
func NewDispatcher(n Notifier, size int, timeout time.Duration, logger logging.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		notifier: n,
		queue:    make(chan Event, size),
		timeout:  timeout,
		logger:   logger.With("module", "notify"),
	}
}

// Enqueue schedules ev for delivery and never blocks. When the queue is
// full the event is dropped and false is returned.
func (d *Dispatcher) Enqueue(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		d.logger.Warn(context.Background(), "notification queue full, event dropped",
			"event_id", ev.ID, "transaction_id", ev.Transaction.ID)
		return false
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run delivers queued events until ctx is cancelled. Events still queued
// at that point are reported and discarded.
func (d *Dispatcher) Run(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case ev := <-d.queue:
			d.deliver(ctx, ev)
		}
	}
	if n := d.Pending(); n > 0 {
		d.logger.Warn(context.Background(), "dispatcher stopped with undelivered events", "count", n)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.notifier.Notify(ctx, ev); err != nil {
		d.logger.Warn(ctx, "event delivery failed",
			"event_id", ev.ID, "transaction_id", ev.Transaction.ID, "error", err)
		return
	}
	d.logger.Debug(ctx, "event delivered", "event_id", ev.ID)
}
