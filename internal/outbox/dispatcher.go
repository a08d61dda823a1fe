package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"example.com/mergington/internal/events"
	"example.com/mergington/internal/observability"
)

var (
	// ErrQueueFull is returned by Dispatcher.Publish when the buffer has no room.
	ErrQueueFull = errors.New("roster event queue full")
	// ErrDispatcherClosed is returned by Dispatcher.Publish after Close.
	ErrDispatcherClosed = errors.New("roster event dispatcher closed")
)

// Dispatcher delivers roster events off the request path. Publish only
// enqueues; a single worker forwards events to the wrapped publisher in order.
type Dispatcher struct {
	next    RosterPublisher
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan events.RosterChanged
	done   chan struct{}
}

// NewDispatcher starts a Dispatcher in front of next. Each delivery is bounded
// by timeout.
func NewDispatcher(next RosterPublisher, bufferSize int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		next:    next,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan events.RosterChanged, bufferSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish implements RosterPublisher. It never blocks.
func (d *Dispatcher) Publish(_ context.Context, event events.RosterChanged) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events, drains the queue and closes the wrapped publisher.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return d.next.Close()
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event events.RosterChanged) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.next.Publish(ctx, event); err != nil {
		observability.RecordPublishFailure(event.EventType)
		d.logger.Error("deliver roster event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("activity", event.ActivityName),
			zap.Error(err),
		)
	}
}
