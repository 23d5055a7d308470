package notice

// An in-memory fan-out of notices. Publishers never block for longer than the bus
// timeout; slow subscribers lose notices.

import (
	"sync"
	"time"
)

// Event is a notice as delivered to a subscriber. Seq orders events across the bus.
type Event struct {
	Seq    uint64
	Notice Notice
}

type subscriber struct {
	ch     chan Event
	levels []Level // empty means every level

	mu     sync.Mutex
	closed bool
}

func (s *subscriber) wants(l Level) bool {
	if len(s.levels) == 0 {
		return true
	}
	for _, want := range s.levels {
		if want == l {
			return true
		}
	}
	return false
}

// send delivers ev unless the subscriber is closed or stays full for timeout.
func (s *subscriber) send(ev Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- ev:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Bus delivers notices to its subscribers. It implements Notifier.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextID  uint64
	seq     uint64
	timeout time.Duration
}

// DefaultPublishTimeout bounds how long Notify waits on a full subscriber.
const DefaultPublishTimeout = 100 * time.Millisecond

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs:    make(map[uint64]*subscriber),
		timeout: DefaultPublishTimeout,
	}
}

// Subscribe registers for notices of the given levels, or of every level when none
// is given, and returns the receive channel and the unsubscribe function.
func (bus *Bus) Subscribe(bufferSize int, levels ...Level) (<-chan Event, func()) {
	sub := &subscriber{
		ch:     make(chan Event, bufferSize),
		levels: append([]Level(nil), levels...),
	}

	bus.mu.Lock()
	bus.nextID++
	id := bus.nextID
	bus.subs[id] = sub
	bus.mu.Unlock()

	unsubscribe := func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		if s, ok := bus.subs[id]; ok {
			s.close()
			delete(bus.subs, id)
		}
	}
	return sub.ch, unsubscribe
}

// Notify sends n to every subscriber that wants its level.
func (bus *Bus) Notify(n Notice) {
	bus.mu.Lock()
	bus.seq++
	ev := Event{Seq: bus.seq, Notice: n}
	bus.mu.Unlock()

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, sub := range bus.subs {
		if sub.wants(n.Level) {
			sub.send(ev, bus.timeout)
		}
	}
}

// Shutdown closes all subscribers.
func (bus *Bus) Shutdown() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for _, sub := range bus.subs {
		sub.close()
	}
	bus.subs = make(map[uint64]*subscriber)
}

// Drain returns every event currently buffered on ch without blocking.
func Drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

var _ Notifier = (*Bus)(nil)
