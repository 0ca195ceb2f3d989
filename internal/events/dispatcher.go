package events

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-revisions/internal/logging"
	"github.com/goliatone/go-revisions/pkg/interfaces"
)

// Dispatcher fans events out to subscribers and channel watchers.
// Subscriber errors are logged and never returned.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	broadcaster *broadcaster
	logger      interfaces.Logger
	now         func() time.Time
}

var _ Sink = (*Dispatcher)(nil)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(logger interfaces.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if clock != nil {
			d.now = clock
		}
	}
}

func WithSubscribers(subscribers ...Subscriber) DispatcherOption {
	return func(d *Dispatcher) {
		for _, sub := range subscribers {
			if sub != nil {
				d.subscribers = append(d.subscribers, sub)
			}
		}
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		broadcaster: newBroadcaster(),
		logger:      logging.NoOp(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a subscriber after construction.
func (d *Dispatcher) Register(sub Subscriber) {
	if sub == nil {
		return
	}
	d.mu.Lock()
	d.subscribers = append(d.subscribers, sub)
	d.mu.Unlock()
}

// Subscribe delivers events until ctx is cancelled. Slow readers miss
// events rather than block the publisher.
func (d *Dispatcher) Subscribe(ctx context.Context) (<-chan Event, error) {
	return d.broadcaster.Subscribe(ctx)
}

func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now()
	}

	d.mu.RLock()
	subscribers := append([]Subscriber(nil), d.subscribers...)
	d.mu.RUnlock()

	logger := logging.WithFields(d.logger, map[string]any{
		"event":      event.Name,
		"owner_type": event.Subject.Kind,
		"owner_id":   event.Subject.ID,
	})
	for _, sub := range subscribers {
		if err := sub.Handle(ctx, event); err != nil {
			logger.Warn("events.subscriber_failed", "error", err)
		}
	}
	d.broadcaster.Broadcast(event)
	logger.Debug("events.published", "subscribers", len(subscribers))
}

type broadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan Event
	nextID   uint64
}

func newBroadcaster() *broadcaster {
	return &broadcaster{watchers: make(map[uint64]chan Event)}
}

func (b *broadcaster) Subscribe(ctx context.Context) (<-chan Event, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		ch := make(chan Event)
		close(ch)
		return ch, nil
	}
	ch := make(chan Event, 8)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

func (b *broadcaster) Broadcast(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}
