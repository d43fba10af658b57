package runtime

import (
	"sync"

	"chat-desk/contract"
	"chat-desk/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry maps transport connection ids to stable participant
// identities and their live outbound sinks. A connection id maps to
// exactly one persistent id; a persistent id keeps exactly one current
// connection. Reconnects rebind, they never duplicate.
type Registry struct {
	mu           sync.RWMutex
	byConnection map[string]string             // connection id -> persistent id
	participants map[string]domain.Participant // persistent id -> participant (current connection inside)
	sinks        map[string]contract.EventSink // connection id -> sink
}

func NewRegistry() *Registry {
	return &Registry{
		byConnection: make(map[string]string),
		participants: make(map[string]domain.Participant),
		sinks:        make(map[string]contract.EventSink),
	}
}

// ResolveOrCreate resolves a connection to a persistent identity. A known
// claimed id is rebound to the new connection (reconnect); anything else,
// including an unknown claim, silently yields a fresh identity. It never
// fails: availability wins over strict identity here.
func (r *Registry) ResolveOrCreate(connectionID, claimedID, name string, role domain.Role, dom string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if claimedID != "" {
		if p, ok := r.participants[claimedID]; ok {
			// Reconnect: drop the stale connection binding, keep identity.
			if p.ConnectionID != "" && p.ConnectionID != connectionID {
				delete(r.byConnection, p.ConnectionID)
				delete(r.sinks, p.ConnectionID)
			}
			p.ConnectionID = connectionID
			if name != "" {
				p.DisplayName = name
			}
			p.Role = role
			if dom != "" {
				p.Domain = dom
			}
			r.participants[claimedID] = p
			r.byConnection[connectionID] = claimedID
			return claimedID
		}
	}

	persistentID := uuid.NewString()
	r.participants[persistentID] = domain.Participant{
		ConnectionID: connectionID,
		PersistentID: persistentID,
		DisplayName:  name,
		Role:         role,
		Domain:       dom,
	}
	r.byConnection[connectionID] = persistentID
	return persistentID
}

// Attach binds the outbound sink of a live connection.
func (r *Registry) Attach(connectionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[connectionID] = sink
}

// Detach removes a dead connection's sink and clears the participant's
// current connection. The identity itself survives for the reconnect
// window; only Forget erases it.
func (r *Registry) Detach(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, connectionID)
	if persistentID, ok := r.byConnection[connectionID]; ok {
		delete(r.byConnection, connectionID)
		if p, ok := r.participants[persistentID]; ok && p.ConnectionID == connectionID {
			p.ConnectionID = ""
			r.participants[persistentID] = p
		}
	}
}

// SinkFor resolves a persistent id to the sink of its current
// connection. Mid-reconnect participants have none; delivery is then
// deferred to history replay.
func (r *Registry) SinkFor(persistentID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[persistentID]
	if !ok || p.ConnectionID == "" {
		return nil, false
	}
	sink, ok := r.sinks[p.ConnectionID]
	return sink, ok
}

// Sinks returns every live sink, for presence broadcasts.
func (r *Registry) Sinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sinks)
}

func (r *Registry) ParticipantByConnection(connectionID string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	persistentID, ok := r.byConnection[connectionID]
	if !ok {
		return domain.Participant{}, false
	}
	p, ok := r.participants[persistentID]
	return p, ok
}

func (r *Registry) Participant(persistentID string) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[persistentID]
	return p, ok
}

// Forget erases an identity entirely. Used when a user's chat ends; the
// next contact from the same browser starts from scratch.
func (r *Registry) Forget(persistentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.participants[persistentID]; ok {
		if p.ConnectionID != "" {
			delete(r.byConnection, p.ConnectionID)
			// The sink stays attached to the live connection: the client
			// still needs the chat_ended notice before it drops.
		}
		delete(r.participants, persistentID)
	}
}
