package runtime

import (
	"sync"

	"chat-desk/domain"
	"chat-desk/errors"

	"github.com/google/uuid"
)

// SessionStore holds the active pairings. A persistent id belongs to at
// most one active session at a time; Create enforces it. The router is
// the only writer, but the store still locks since transport goroutines
// read it for stats.
type SessionStore struct {
	mu            sync.RWMutex
	sessions      map[uuid.UUID]*domain.Session
	byParticipant map[string]uuid.UUID
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:      make(map[uuid.UUID]*domain.Session),
		byParticipant: make(map[string]uuid.UUID),
	}
}

// Create pairs a user with an agent. Fails with ErrAlreadyPaired when
// either side already holds an active session; the existing session is
// kept untouched.
func (s *SessionStore) Create(userID, agentID, dom string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byParticipant[userID]; ok {
		return nil, errors.ErrAlreadyPaired
	}
	if _, ok := s.byParticipant[agentID]; ok {
		return nil, errors.ErrAlreadyPaired
	}

	session := domain.NewSession(userID, agentID, dom)
	session.Activate()
	s.sessions[session.ID] = session
	s.byParticipant[userID] = session.ID
	s.byParticipant[agentID] = session.ID
	return session, nil
}

// Append adds a message to an active session and returns the updated
// ordered history.
func (s *SessionStore) Append(sessionID uuid.UUID, message domain.Message) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.ErrUnknownTarget
	}
	if session.State != domain.SessionActive {
		return nil, errors.ErrSessionEnded
	}
	session.Append(message)
	return session.History(), nil
}

// End transitions a session to its terminal state and releases both
// participants. Idempotent: ending an already-ended or unknown session
// reports false with no mutation.
func (s *SessionStore) End(sessionID uuid.UUID) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if !session.End() {
		return session, false
	}
	delete(s.byParticipant, session.UserID)
	delete(s.byParticipant, session.AgentID)
	delete(s.sessions, sessionID)
	return session, true
}

// FindByParticipant is the O(1) reconnect-time lookup.
func (s *SessionStore) FindByParticipant(persistentID string) (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.byParticipant[persistentID]
	if !ok {
		return nil, false
	}
	session, ok := s.sessions[sessionID]
	return session, ok
}

// ByAgent returns every active session held by an agent. With strict 1:1
// pairing this is at most one, but restore_active_chats answers with the
// map shape regardless.
func (s *SessionStore) ByAgent(agentID string) []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Session
	for _, session := range s.sessions {
		if session.AgentID == agentID {
			out = append(out, session)
		}
	}
	return out
}

func (s *SessionStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
