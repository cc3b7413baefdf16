package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/support-tickets/internal/events"
)

// ErrQueueFull is returned by Publish when the buffer has no room left.
var ErrQueueFull = errors.New("event queue full")

// EventWorker moves event delivery off the request path. Publish only
// enqueues; Run hands queued events to the wrapped dispatcher.
type EventWorker struct {
	next   events.Dispatcher
	queue  chan events.Event
	logger *zap.Logger
}

// NewEventWorker wraps next with a bounded queue of size buffer.
func NewEventWorker(next events.Dispatcher, buffer int, logger *zap.Logger) *EventWorker {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventWorker{next: next, queue: make(chan events.Event, buffer), logger: logger}
}

// Publish enqueues the event without blocking.
func (w *EventWorker) Publish(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers handler on the wrapped dispatcher.
func (w *EventWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.next.Subscribe(eventType, handler)
}

// Run delivers events until ctx is done, then drains what is still queued.
func (w *EventWorker) Run(ctx context.Context) error {
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (w *EventWorker) drain(ctx context.Context) {
	for {
		select {
		case event := <-w.queue:
			w.deliver(ctx, event)
		default:
			return
		}
	}
}

func (w *EventWorker) deliver(ctx context.Context, event events.Event) {
	if err := w.next.Publish(ctx, event); err != nil {
		w.logger.Warn("event delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
