package domain

// DomainQueue holds, per routing domain, the idle agents and the pending
// (unpaired) user requests. Both sides are FIFO. The router drains one
// side against the other on every mutation, so an idle agent and a
// pending request for the same domain never coexist past one scheduling
// step.
//
// DomainQueue does not lock; the router serializes all access.
type DomainQueue struct {
	idleAgents map[string][]string // domain -> agent persistent ids, oldest first
	pending    map[string][]string // domain -> user persistent ids, oldest first
	registered map[string]Set      // domain -> all registered agents, idle or busy
	agentHome  map[string]string   // agent persistent id -> domain
}

type Set map[string]struct{}

func NewDomainQueue() *DomainQueue {
	return &DomainQueue{
		idleAgents: make(map[string][]string),
		pending:    make(map[string][]string),
		registered: make(map[string]Set),
		agentHome:  make(map[string]string),
	}
}

// RegisterAgent marks an agent idle for a domain. An agent registered for
// one domain never serves another; re-registering under a new domain
// moves it.
func (q *DomainQueue) RegisterAgent(domain, agentID string) {
	if old, ok := q.agentHome[agentID]; ok && old != domain {
		q.removeAgent(old, agentID)
	}
	q.agentHome[agentID] = domain
	if _, ok := q.registered[domain]; !ok {
		q.registered[domain] = make(Set)
	}
	q.registered[domain][agentID] = struct{}{}
	for _, id := range q.idleAgents[domain] {
		if id == agentID {
			return
		}
	}
	q.idleAgents[domain] = append(q.idleAgents[domain], agentID)
}

// RemoveAgent takes an agent out of its domain entirely (sign-off or
// transport loss). Any active session it holds is untouched.
func (q *DomainQueue) RemoveAgent(agentID string) {
	domain, ok := q.agentHome[agentID]
	if !ok {
		return
	}
	delete(q.agentHome, agentID)
	q.removeAgent(domain, agentID)
	if members, ok := q.registered[domain]; ok {
		delete(members, agentID)
		if len(members) == 0 {
			delete(q.registered, domain)
		}
	}
}

func (q *DomainQueue) removeAgent(domain, agentID string) {
	idle := q.idleAgents[domain]
	for i, id := range idle {
		if id == agentID {
			q.idleAgents[domain] = append(idle[:i], idle[i+1:]...)
			break
		}
	}
	if len(q.idleAgents[domain]) == 0 {
		delete(q.idleAgents, domain)
	}
}

// MarkBusy removes an agent from the idle pool but keeps it registered
// for its domain. Used when an agent reconnects while still paired.
func (q *DomainQueue) MarkBusy(agentID string) {
	if domain, ok := q.agentHome[agentID]; ok {
		q.removeAgent(domain, agentID)
	}
}

// TakeIdleAgent pops the longest-idle agent for a domain, or "" when none
// is idle.
func (q *DomainQueue) TakeIdleAgent(domain string) string {
	idle := q.idleAgents[domain]
	if len(idle) == 0 {
		return ""
	}
	agentID := idle[0]
	q.idleAgents[domain] = idle[1:]
	if len(q.idleAgents[domain]) == 0 {
		delete(q.idleAgents, domain)
	}
	return agentID
}

// ReleaseAgent returns an agent to the idle pool of its domain after a
// session ends. Unknown agents (signed off meanwhile) are ignored.
func (q *DomainQueue) ReleaseAgent(agentID string) {
	domain, ok := q.agentHome[agentID]
	if !ok {
		return
	}
	q.RegisterAgent(domain, agentID)
}

// EnqueueUser appends a user request to the domain's pending list. The
// caller pairs against an idle agent first; this is only for the no-agent
// case.
func (q *DomainQueue) EnqueueUser(domain, userID string) {
	for _, id := range q.pending[domain] {
		if id == userID {
			return
		}
	}
	q.pending[domain] = append(q.pending[domain], userID)
}

// TakePendingUser pops the longest-waiting user for a domain, or "" when
// none is queued.
func (q *DomainQueue) TakePendingUser(domain string) string {
	waiting := q.pending[domain]
	if len(waiting) == 0 {
		return ""
	}
	userID := waiting[0]
	q.pending[domain] = waiting[1:]
	if len(q.pending[domain]) == 0 {
		delete(q.pending, domain)
	}
	return userID
}

func (q *DomainQueue) DropPendingUser(userID string) {
	for domain, waiting := range q.pending {
		for i, id := range waiting {
			if id == userID {
				q.pending[domain] = append(waiting[:i], waiting[i+1:]...)
				if len(q.pending[domain]) == 0 {
					delete(q.pending, domain)
				}
				return
			}
		}
	}
}

// HasAgents reports whether any agent at all is registered for the
// domain, busy or not. Distinguishes "no capacity" from "wait".
func (q *DomainQueue) HasAgents(domain string) bool {
	return len(q.registered[domain]) > 0
}

func (q *DomainQueue) AgentDomain(agentID string) (string, bool) {
	domain, ok := q.agentHome[agentID]
	return domain, ok
}

func (q *DomainQueue) IdleCount(domain string) int {
	return len(q.idleAgents[domain])
}

func (q *DomainQueue) PendingCount(domain string) int {
	return len(q.pending[domain])
}
