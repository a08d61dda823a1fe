package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"example.com/mergington/internal/events"
	"example.com/mergington/internal/observability"
)

// gatedPublisher blocks every Publish until release is closed.
type gatedPublisher struct {
	release chan struct{}
	err     error

	mu        sync.Mutex
	published []events.RosterChanged
	deadlines []bool
	closed    bool
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{release: make(chan struct{})}
}

func (g *gatedPublisher) Publish(ctx context.Context, event events.RosterChanged) error {
	<-g.release
	_, hasDeadline := ctx.Deadline()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.published = append(g.published, event)
	g.deadlines = append(g.deadlines, hasDeadline)
	return g.err
}

func (g *gatedPublisher) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *gatedPublisher) snapshot() []events.RosterChanged {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]events.RosterChanged(nil), g.published...)
}

func TestDispatcherPublishDoesNotWaitForDelivery(t *testing.T) {
	next := newGatedPublisher()
	d := NewDispatcher(next, 4, time.Second, zaptest.NewLogger(t))

	start := time.Now()
	require.NoError(t, d.Publish(context.Background(), events.RosterChanged{EventID: "evt-1"}))
	require.Less(t, time.Since(start), 100*time.Millisecond)
	require.Empty(t, next.snapshot())

	close(next.release)
	require.NoError(t, d.Close())
	require.Len(t, next.snapshot(), 1)
	require.True(t, next.closed)
	require.Equal(t, []bool{true}, next.deadlines)
}

func TestDispatcherDeliversInOrderAndDrainsOnClose(t *testing.T) {
	next := newGatedPublisher()
	close(next.release)
	d := NewDispatcher(next, 16, 0, zap.NewNop())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, d.Publish(context.Background(), events.RosterChanged{EventID: id}))
	}
	require.NoError(t, d.Close())

	published := next.snapshot()
	require.Len(t, published, 3)
	require.Equal(t, "a", published[0].EventID)
	require.Equal(t, "b", published[1].EventID)
	require.Equal(t, "c", published[2].EventID)
}

func TestDispatcherRejectsWhenFull(t *testing.T) {
	next := newGatedPublisher()
	d := NewDispatcher(next, 1, time.Second, zap.NewNop())

	// The worker takes the first event and blocks on it; the second fills the
	// buffer; the third has nowhere to go.
	require.NoError(t, d.Publish(context.Background(), events.RosterChanged{EventID: "1"}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, d.Publish(context.Background(), events.RosterChanged{EventID: "2"}))
	require.ErrorIs(t, d.Publish(context.Background(), events.RosterChanged{EventID: "3"}), ErrQueueFull)

	close(next.release)
	require.NoError(t, d.Close())
	require.Len(t, next.snapshot(), 2)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	next := newGatedPublisher()
	close(next.release)
	d := NewDispatcher(next, 1, time.Second, zap.NewNop())

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	require.ErrorIs(t, d.Publish(context.Background(), events.RosterChanged{}), ErrDispatcherClosed)
}

func TestDispatcherCountsDeliveryFailures(t *testing.T) {
	next := newGatedPublisher()
	next.err = errors.New("broker down")
	close(next.release)
	d := NewDispatcher(next, 1, time.Second, zap.NewNop())

	before := testutil.ToFloat64(observability.PublishFailures(events.RosterWithdrawn))
	require.NoError(t, d.Publish(context.Background(), events.RosterChanged{EventType: events.RosterWithdrawn}))
	require.NoError(t, d.Close())

	require.Equal(t, before+1, testutil.ToFloat64(observability.PublishFailures(events.RosterWithdrawn)))
}
