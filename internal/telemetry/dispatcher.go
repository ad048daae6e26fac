package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Emitter accepts events. Emit never blocks for I/O and never reports failure.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Publisher delivers one event to a sink
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Dispatcher buffers events in memory and hands them to a Publisher from a single
// goroutine started by Run. When the buffer is full the event is dropped.
type Dispatcher struct {
	publisher Publisher
	events    chan Event
	logger    *slog.Logger
	timeout   time.Duration
	dropped   atomic.Int64
	published atomic.Int64

	// mu orders Emit's send against Run stopping, so no event lands after the final flush
	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a dispatcher with room for buffer pending events
func NewDispatcher(publisher Publisher, buffer int, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		publisher: publisher,
		events:    make(chan Event, buffer),
		logger:    logger,
		timeout:   5 * time.Second,
	}
}

// Emit queues e for publishing
func (d *Dispatcher) Emit(ctx context.Context, e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.drop(ctx, e, "dispatcher stopped")
		return
	}

	select {
	case d.events <- e:
	default:
		d.drop(ctx, e, "buffer full")
	}
}

// Run publishes queued events until ctx is done, then flushes what is left.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case e := <-d.events:
			d.publish(e)
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()
			d.flush()
			if err := d.publisher.Close(); err != nil {
				d.logger.Warn("Failed to close telemetry publisher", "error", err)
			}
			d.logger.Info("Telemetry dispatcher stopped",
				"published", d.published.Load(),
				"dropped", d.dropped.Load())
			return nil
		}
	}
}

// Dropped returns how many events were discarded
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Published returns how many events reached the publisher successfully
func (d *Dispatcher) Published() int64 {
	return d.published.Load()
}

func (d *Dispatcher) flush() {
	for {
		select {
		case e := <-d.events:
			d.publish(e)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.safePublish(ctx, e); err != nil {
		d.logger.Warn("Failed to publish telemetry event", "event", e.Name, "error", err)
		return
	}
	d.published.Add(1)
}

func (d *Dispatcher) safePublish(ctx context.Context, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publisher panic: %v", r)
		}
	}()
	return d.publisher.Publish(ctx, e)
}

func (d *Dispatcher) drop(ctx context.Context, e Event, reason string) {
	d.dropped.Add(1)
	d.logger.WarnContext(ctx, "Dropped telemetry event", "event", e.Name, "reason", reason)
}
