// Package sink holds the transport-facing consumers of router events.
package sink

import (
	"fmt"
	"log/slog"
	"sync"

	"chat-desk/domain/event"
)

// ConnectionSink buffers events headed for one client connection. The
// router writes without blocking; the transport's write pump drains.
// A full buffer drops the event, since transport delivery is
// best-effort and history replay repairs the gap for chat payloads.
type ConnectionSink struct {
	log    *slog.Logger
	events chan event.Event

	mu     sync.Mutex
	closed bool
}

func NewConnectionSink(log *slog.Logger, bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		log:    log,
		events: make(chan event.Event, bufferSize),
	}
}

// Deliver enqueues one event. Never blocks.
func (s *ConnectionSink) Deliver(e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink closed")
	}
	select {
	case s.events <- e:
		return nil
	default:
		s.log.Warn("Connection buffer full, dropping event", "event", e.Name())
		return fmt.Errorf("connection buffer full")
	}
}

// Events is consumed by the transport write pump. The channel closes
// when the sink does.
func (s *ConnectionSink) Events() <-chan event.Event {
	return s.events
}

func (s *ConnectionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
