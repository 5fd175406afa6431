package events

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/sakila-admin/internal/logging"
	"github.com/iliyamo/sakila-admin/internal/metrics"
)

// Sink receives every published event after local fan-out.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e Event) error
}

const subscriberBuffer = 64

// Bus fans events out to subscribers and sinks.  Slow subscribers drop
// events rather than block publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	sinks  []Sink

	sinkTimeout time.Duration
	wg          sync.WaitGroup
}

func NewBus(sinks ...Sink) *Bus {
	return &Bus{subs: make(map[uint64]chan Event), sinks: sinks, sinkTimeout: 5 * time.Second}
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers e to every subscriber and hands it to each sink in the
// background.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			logging.Debug().Str("event", e.Type).Msg("subscriber full, event dropped")
		}
	}
	b.mu.RUnlock()
	metrics.EventsPublished.WithLabelValues(e.Type, "bus").Inc()

	for _, s := range b.sinks {
		b.wg.Add(1)
		go func(s Sink) {
			defer b.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), b.sinkTimeout)
			defer cancel()
			if err := s.Publish(ctx, e); err != nil {
				logging.Warn().Err(err).Str("sink", s.Name()).Str("event", e.Type).Msg("event sink failed")
				return
			}
			metrics.EventsPublished.WithLabelValues(e.Type, s.Name()).Inc()
		}(s)
	}
}

// Flush waits for in-flight sink deliveries.
func (b *Bus) Flush() { b.wg.Wait() }
