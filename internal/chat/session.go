package chat

import (
	"sync"

	"github.com/google/uuid"
)

const sendBufferSize = 256

// Session is the core's non-owning handle on one live connection. The
// transport layer owns the socket and drains Out; the hub only enqueues.
type Session struct {
	ID       string
	Identity string

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func NewSession() *Session {
	return &Session{
		ID:  uuid.NewString(),
		out: make(chan []byte, sendBufferSize),
	}
}

// Out is the outbound queue for the transport write loop. It is closed when
// the session is closed.
func (s *Session) Out() <-chan []byte {
	return s.out
}

// enqueue hands an encoded event to the transport. Delivery is best-effort:
// a closed session or a full buffer drops the event rather than blocking the
// hub.
func (s *Session) enqueue(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- data:
		return true
	default:
		return false
	}
}

// Close shuts the outbound queue. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}
