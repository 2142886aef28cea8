package eventstream

import (
	"sync"

	eventsv1 "github.com/UtsavShingala/REG-NMS-Matching-Engine/internal/domain/events/v1"
)

// Stream fans matching events out to subscribers. Publish is a
// non-blocking hand-off: a subscriber whose buffer is full loses the
// event and has its gap counter incremented, so a slow downstream
// consumer can never stall the matching loop. Events that are
// delivered arrive in emission order.
type Stream struct {
	buffer int

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

type subscriber struct {
	ch      chan eventsv1.Event
	dropped int64
}

// NewStream creates a broadcaster whose subscribers each get a buffer
// of the given size.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = 1
	}
	return &Stream{
		buffer: buffer,
		subs:   make(map[int]*subscriber),
	}
}

// Publish hands the event to every subscriber without blocking.
func (s *Stream) Publish(event eventsv1.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for _, sub := range s.subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped++
		}
	}
}

// Subscribe attaches a new consumer. The returned cancel func detaches
// it and closes its channel; it is safe to call more than once.
func (s *Stream) Subscribe() (<-chan eventsv1.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscriber{ch: make(chan eventsv1.Event, s.buffer)}
	id := s.nextID
	s.nextID++

	if s.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	s.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Dropped returns the total number of events lost across all current
// subscribers.
func (s *Stream) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, sub := range s.subs {
		total += sub.dropped
	}
	return total
}

// Close detaches every subscriber and closes their channels. Publish
// becomes a no-op afterwards.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
}

var _ eventsv1.Stream = (*Stream)(nil)
