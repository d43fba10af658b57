package domain

import (
	"github.com/google/uuid"
)

type SessionState string

const (
	SessionPending SessionState = "pending"
	SessionActive  SessionState = "active"
	SessionEnded   SessionState = "ended"
)

// Session pairs one user with one agent in a domain. The message sequence
// is append-only; replay on reconnect must reproduce exactly this order.
type Session struct {
	ID      uuid.UUID
	UserID  string
	AgentID string
	Domain  string
	State   SessionState

	messages []Message

	// unread counts messages appended while the given participant had no
	// live connection. Cleared when that participant reconnects.
	unread map[string]int
}

func NewSession(userID, agentID, domain string) *Session {
	return &Session{
		ID:      uuid.New(),
		UserID:  userID,
		AgentID: agentID,
		Domain:  domain,
		State:   SessionPending,
		unread:  make(map[string]int),
	}
}

func (s *Session) Activate() {
	if s.State == SessionPending {
		s.State = SessionActive
	}
}

// Append records a message. Only valid on an active session; the caller
// enforces this and maps violations to the SessionEnded error.
func (s *Session) Append(message Message) {
	s.messages = append(s.messages, message)
}

// History returns the full ordered log. The slice is a copy; callers may
// not mutate session state through it.
func (s *Session) History() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int {
	return len(s.messages)
}

// Partner returns the persistent id of the other side, or "" when the
// given id is not a member of this session.
func (s *Session) Partner(persistentID string) string {
	switch persistentID {
	case s.UserID:
		return s.AgentID
	case s.AgentID:
		return s.UserID
	}
	return ""
}

func (s *Session) Has(persistentID string) bool {
	return persistentID == s.UserID || persistentID == s.AgentID
}

// End transitions to the terminal state. Ending twice is a no-op; the
// boolean reports whether this call performed the transition.
func (s *Session) End() bool {
	if s.State == SessionEnded {
		return false
	}
	s.State = SessionEnded
	return true
}

func (s *Session) MarkUnread(persistentID string) {
	s.unread[persistentID]++
}

func (s *Session) Unread(persistentID string) int {
	return s.unread[persistentID]
}

func (s *Session) ClearUnread(persistentID string) {
	delete(s.unread, persistentID)
}
