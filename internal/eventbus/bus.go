// Package eventbus is an in-memory fan-out for tracker lifecycle events.
//
// Publish never blocks. Each subscriber owns a buffered channel and drops
// events it cannot keep up with.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is a small, JSON-serializable signal.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// Publisher is the producer side; the tracker depends only on this.
type Publisher interface {
	Publish(e Event)
}

type Bus struct {
	mu   sync.RWMutex
	subs map[uint64]*subscriber
	seq  atomic.Uint64

	dropped atomic.Uint64
}

type subscriber struct {
	ch    chan Event
	types map[string]bool // nil means all
}

func New() *Bus {
	return &Bus{subs: map[uint64]*subscriber{}}
}

func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.types != nil && !s.types[e.Type] {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel receiving events of the given types, or all
// events when none are given. unsubscribe closes the channel.
func (b *Bus) Subscribe(buffer int, types ...string) (ch <-chan Event, unsubscribe func()) {
	if buffer <= 0 {
		buffer = 8
	}
	s := &subscriber{ch: make(chan Event, buffer)}
	if len(types) > 0 {
		s.types = make(map[string]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = s
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			// Publish holds the read lock while sending, so close only
			// after removal under the write lock.
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.ch)
		})
	}
}

// Dropped counts events discarded because a subscriber was full.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
