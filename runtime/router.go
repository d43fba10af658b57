// Package runtime drives the live-chat state machine: identity
// resolution, FIFO pairing, message relay, reconnection, and
// termination. It orchestrates the stores without containing transport
// or rendering logic.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/domain/event"
	"chat-desk/errors"
	"chat-desk/observability"
	"chat-desk/runtime/workers"

	"github.com/google/uuid"
)

// TokenVerifier is the reconnect-token side of auth.TokenIssuer.
type TokenVerifier interface {
	Issue(persistentID, role string) (string, error)
	Verify(token string) (string, bool)
}

// Router processes every inbound command to completion before the next
// one: a single worker drains the command channel, so session and queue
// mutations never interleave. Everything else (presence fanout,
// archiving, the reconnect sweep) runs in supervised side workers that
// only communicate with the router through channels.
type Router struct {
	log        *slog.Logger
	registry   contract.IRegistry
	sessions   *SessionStore
	queue      *domain.DomainQueue
	tokens     TokenVerifier
	supervisor contract.ISupervisor
	monitor    *observability.Monitor

	commands chan domain.Command
	presence chan event.Event
	archive  chan domain.ArchivedConversation

	archiveStore    contract.IArchive
	reconnectWindow time.Duration
	sweepInterval   time.Duration

	// lastSeenGone tracks when a paired participant lost its connection.
	// Only the router worker touches it.
	lastSeenGone map[string]time.Time
}

func NewRouter(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, sessions *SessionStore, queue *domain.DomainQueue,
	tokens TokenVerifier, archiveStore contract.IArchive, monitor *observability.Monitor,
	bufferSize int, reconnectWindow, sweepInterval time.Duration) *Router {
	return &Router{
		log:             log,
		registry:        registry,
		sessions:        sessions,
		queue:           queue,
		tokens:          tokens,
		supervisor:      supervisor,
		monitor:         monitor,
		commands:        make(chan domain.Command, bufferSize),
		presence:        make(chan event.Event, bufferSize),
		archive:         make(chan domain.ArchivedConversation, bufferSize),
		archiveStore:    archiveStore,
		reconnectWindow: reconnectWindow,
		sweepInterval:   sweepInterval,
		lastSeenGone:    make(map[string]time.Time),
	}
}

// Dispatch hands a command to the router loop. Never blocks: a full
// channel drops the command, since transport delivery is best-effort
// anyway.
func (r *Router) Dispatch(cmd domain.Command) {
	select {
	case r.commands <- cmd:
	default:
		r.log.Warn("Command channel full, dropping command", "command", fmt.Sprintf("%T", cmd))
	}
}

// Start registers the router loop and its side workers with the
// supervisor and blocks until the context is canceled.
func (r *Router) Start(ctx context.Context) error {
	r.supervisor.Add(workers.NewCommandLoop(r.log, r.commands, r.handle))
	r.supervisor.Add(workers.NewPresenceWorker(r.log, r.registry, r.presence))
	if r.archiveStore != nil {
		r.supervisor.Add(workers.NewArchiveWorker(r.log, r.archiveStore, r.archive))
	}
	r.supervisor.Add(workers.NewSweepWorker(r.sweepInterval, func() {
		r.Dispatch(sweepCommand{})
	}))

	r.log.Info("Starting router and all supervised workers")
	r.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervision context; workers drain and exit.
func (r *Router) Stop() {
	r.log.Info("Requesting router shutdown")
	r.supervisor.Stop()
}

// sweepCommand is injected by the sweep worker so that even timeouts are
// handled inside the single-threaded loop.
type sweepCommand struct{}

func (sweepCommand) CommandName() string { return "sweep" }

func (r *Router) handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.RegisterAgentCommand:
		r.handleRegisterAgent(c)
	case domain.AgentOfflineCommand:
		r.handleAgentOffline(c)
	case domain.RequestLiveChatCommand:
		r.handleRequestLiveChat(c)
	case domain.SendMessageCommand:
		r.handleSendMessage(c)
	case domain.EndChatCommand:
		r.handleEndChat(c)
	case domain.RestoreChatsCommand:
		r.handleRestoreChats(c)
	case domain.DisconnectCommand:
		r.handleDisconnect(c)
	case sweepCommand:
		r.sweepAbandoned()
	default:
		r.log.Warn("Unknown command ignored", "command", fmt.Sprintf("%T", cmd))
	}
}

// resolveClaim prefers a verified reconnect token over the bare claimed
// id. Both degrade silently: an untrusted token simply means no claim.
func (r *Router) resolveClaim(claimedID, token string) string {
	if token != "" {
		if id, ok := r.tokens.Verify(token); ok {
			return id
		}
		r.log.Debug("Reconnect token rejected, ignoring claim")
		return ""
	}
	return claimedID
}

func (r *Router) handleRegisterAgent(cmd domain.RegisterAgentCommand) {
	claimed := r.resolveClaim(cmd.ClaimedID, cmd.ReconnectToken)
	agentID := r.registry.ResolveOrCreate(cmd.ConnectionID, claimed, cmd.AgentName, domain.RoleAgent, cmd.Domain)
	delete(r.lastSeenGone, agentID)

	r.queue.RegisterAgent(cmd.Domain, agentID)
	if _, paired := r.sessions.FindByParticipant(agentID); paired {
		// Reconnecting mid-session: registered for the domain but not idle.
		r.queue.MarkBusy(agentID)
	}

	r.ack(agentID, domain.RoleAgent)
	r.broadcast(event.AgentStatus{AgentID: agentID, Status: "online", At: time.Now().UTC()})
	r.monitor.AgentOnline()
	r.log.Info("Agent registered", "agent_id", agentID, "domain", cmd.Domain)

	r.pairWaiting(cmd.Domain)
}

func (r *Router) handleAgentOffline(cmd domain.AgentOfflineCommand) {
	if _, ok := r.queue.AgentDomain(cmd.AgentID); !ok {
		return
	}
	r.queue.RemoveAgent(cmd.AgentID)
	r.broadcast(event.AgentStatus{AgentID: cmd.AgentID, Status: "offline", At: time.Now().UTC()})
	r.monitor.AgentOffline()
	r.log.Info("Agent signed off", "agent_id", cmd.AgentID)
}

func (r *Router) handleRequestLiveChat(cmd domain.RequestLiveChatCommand) {
	claimed := r.resolveClaim(cmd.ClaimedID, cmd.ReconnectToken)
	userID := r.registry.ResolveOrCreate(cmd.ConnectionID, claimed, cmd.UserName, domain.RoleUser, cmd.Domain)
	delete(r.lastSeenGone, userID)
	r.ack(userID, domain.RoleUser)

	// Reconnect case: a known identity bound to an active session goes
	// straight back to paired, with the full history replayed. Never
	// re-queued.
	if session, ok := r.sessions.FindByParticipant(userID); ok {
		session.ClearUnread(userID)
		agent, _ := r.registry.Participant(session.AgentID)
		r.deliver(userID, event.LiveChatReconnected{
			AgentID:   session.AgentID,
			AgentName: agentName(agent),
			UserID:    userID,
			Messages:  session.History(),
		})
		r.deliver(session.AgentID, event.UserReconnected{UserID: userID, UserName: cmd.UserName})
		r.log.Info("User reconnected to active session", "user_id", userID, "session_id", session.ID)
		return
	}

	if agentID := r.queue.TakeIdleAgent(cmd.Domain); agentID != "" {
		r.pair(cmd.Domain, userID, agentID)
		return
	}

	r.queue.EnqueueUser(cmd.Domain, userID)
	r.monitor.UserQueued()
	if !r.queue.HasAgents(cmd.Domain) {
		// Zero registered agents is a capacity notice; a merely busy
		// domain queues silently.
		r.deliver(userID, event.NoAgentsAvailable{Message: "No agents available"})
		r.log.Info("No agents registered for domain", "domain", cmd.Domain, "user_id", userID)
		return
	}
	r.log.Info("User queued", "domain", cmd.Domain, "user_id", userID)
}

// pairWaiting drains the pending side of a domain against its idle
// agents. Runs after every mutation that can create capacity, so a
// request and an idle agent never coexist past one scheduling step.
func (r *Router) pairWaiting(dom string) {
	for r.queue.PendingCount(dom) > 0 && r.queue.IdleCount(dom) > 0 {
		agentID := r.queue.TakeIdleAgent(dom)
		userID := r.queue.TakePendingUser(dom)
		r.monitor.UserDequeued()
		r.pair(dom, userID, agentID)
	}
}

func (r *Router) pair(dom, userID, agentID string) {
	session, err := r.sessions.Create(userID, agentID, dom)
	if err != nil {
		// Duplicate pairing attempt: keep the existing session, requeue
		// nothing, hand the agent back if it was the clean side.
		r.log.Warn("Pairing rejected", "user_id", userID, "agent_id", agentID, "error", err)
		if _, paired := r.sessions.FindByParticipant(agentID); !paired {
			r.queue.ReleaseAgent(agentID)
		}
		return
	}

	agent, _ := r.registry.Participant(agentID)
	user, _ := r.registry.Participant(userID)

	r.deliver(userID, event.LiveChatConnected{
		AgentID:   agentID,
		AgentName: agentName(agent),
		UserID:    userID,
		Messages:  session.History(),
	})
	r.deliver(agentID, event.NewLiveChat{UserID: userID, UserName: user.DisplayName})
	r.monitor.SessionStarted()
	r.log.Info("Paired", "session_id", session.ID, "user_id", userID, "agent_id", agentID, "domain", dom)
}

func (r *Router) handleSendMessage(cmd domain.SendMessageCommand) {
	sender, ok := r.registry.Participant(cmd.SenderID)
	if !ok {
		r.notice(cmd.SenderID, errors.ErrUnknownTarget)
		return
	}
	session, ok := r.sessions.FindByParticipant(cmd.SenderID)
	if !ok {
		r.notice(cmd.SenderID, errors.ErrUnknownTarget)
		return
	}
	recipientID := session.Partner(cmd.SenderID)
	if cmd.RecipientID != "" && cmd.RecipientID != recipientID {
		// The claimed recipient is not the session partner; relay stays
		// inside the pairing.
		r.log.Debug("Recipient mismatch, relaying to session partner",
			"claimed", cmd.RecipientID, "partner", recipientID)
	}

	message := domain.Message{
		ID:     uuid.New(),
		Sender: sender.Role,
		Text:   cmd.Text,
		Image:  cmd.Image,
		At:     time.Now().UTC(),
	}
	if _, err := r.sessions.Append(session.ID, message); err != nil {
		r.notice(cmd.SenderID, err)
		return
	}
	r.monitor.MessageRelayed()

	// Relay verbatim. A recipient mid-reconnect misses real-time
	// delivery; the message is already in the history for replay.
	if sink, ok := r.registry.SinkFor(recipientID); ok {
		r.push(sink, event.ReceiveMessage{From: cmd.SenderID, Message: cmd.Text, Image: cmd.Image})
	} else {
		session.MarkUnread(recipientID)
	}
}

func (r *Router) handleEndChat(cmd domain.EndChatCommand) {
	session, ok := r.sessions.FindByParticipant(cmd.ParticipantID)
	if !ok {
		// Already ended or never existed: idempotent no-op.
		return
	}
	r.endSession(session)
}

// endSession archives, notifies both sides, returns the agent to the
// idle pool and clears the user's identity mapping.
func (r *Router) endSession(session *domain.Session) {
	snapshot, endedNow := r.sessions.End(session.ID)
	if !endedNow {
		return
	}

	user, _ := r.registry.Participant(snapshot.UserID)
	r.deliver(snapshot.UserID, event.ChatEnded{PartnerID: snapshot.AgentID})
	r.deliver(snapshot.AgentID, event.ChatEnded{PartnerID: snapshot.UserID})

	select {
	case r.archive <- domain.ArchivedConversation{
		SessionID: snapshot.ID,
		UserID:    snapshot.UserID,
		AgentID:   snapshot.AgentID,
		UserName:  user.DisplayName,
		Domain:    snapshot.Domain,
		Messages:  snapshot.History(),
		EndedAt:   time.Now().UTC(),
	}:
	default:
		r.log.Warn("Archive channel full, conversation snapshot lost", "session_id", snapshot.ID)
	}

	r.queue.ReleaseAgent(snapshot.AgentID)
	r.registry.Forget(snapshot.UserID)
	delete(r.lastSeenGone, snapshot.UserID)
	r.monitor.SessionEnded()
	r.log.Info("Session ended", "session_id", snapshot.ID, "user_id", snapshot.UserID, "agent_id", snapshot.AgentID)

	// The agent is immediately eligible for the next waiting user.
	r.pairWaiting(snapshot.Domain)
}

func (r *Router) handleRestoreChats(cmd domain.RestoreChatsCommand) {
	sessions := r.sessions.ByAgent(cmd.AgentID)
	chats := make(map[string]event.RestoredChat, len(sessions))
	for _, session := range sessions {
		user, _ := r.registry.Participant(session.UserID)
		name := user.DisplayName
		if name == "" {
			name = "User " + session.UserID
		}
		chats[session.UserID] = event.RestoredChat{UserName: name, Messages: session.History()}
		if n := session.Unread(cmd.AgentID); n > 0 {
			r.deliver(cmd.AgentID, event.UnreadCount{PartnerID: session.UserID, Count: n})
		}
		session.ClearUnread(cmd.AgentID)
	}
	r.deliver(cmd.AgentID, event.RestoreActiveChats{Chats: chats})
}

func (r *Router) handleDisconnect(cmd domain.DisconnectCommand) {
	participant, known := r.registry.ParticipantByConnection(cmd.ConnectionID)
	r.registry.Detach(cmd.ConnectionID)
	if !known {
		return
	}

	if participant.Role == domain.RoleAgent {
		r.queue.RemoveAgent(participant.PersistentID)
		r.broadcast(event.AgentStatus{AgentID: participant.PersistentID, Status: "offline", At: time.Now().UTC()})
		r.monitor.AgentOffline()
	} else {
		r.queue.DropPendingUser(participant.PersistentID)
	}

	// A paired participant gets a reconnect window before the session is
	// considered abandoned.
	if _, paired := r.sessions.FindByParticipant(participant.PersistentID); paired {
		r.lastSeenGone[participant.PersistentID] = time.Now()
	}
	r.log.Info("Connection lost", "connection_id", cmd.ConnectionID,
		"persistent_id", participant.PersistentID, "role", participant.Role)
}

// sweepAbandoned ends sessions whose participant never came back inside
// the reconnect window.
func (r *Router) sweepAbandoned() {
	if r.reconnectWindow <= 0 {
		return
	}
	now := time.Now()
	for persistentID, goneAt := range r.lastSeenGone {
		if now.Sub(goneAt) < r.reconnectWindow {
			continue
		}
		delete(r.lastSeenGone, persistentID)
		if p, ok := r.registry.Participant(persistentID); ok && p.ConnectionID != "" {
			continue // came back, command ordering just lagged
		}
		if session, ok := r.sessions.FindByParticipant(persistentID); ok {
			r.log.Info("Reconnect window elapsed, ending session",
				"persistent_id", persistentID, "session_id", session.ID)
			r.endSession(session)
		}
	}
}

// ack confirms a registration and hands out the reconnect token.
func (r *Router) ack(persistentID string, role domain.Role) {
	token, err := r.tokens.Issue(persistentID, string(role))
	if err != nil {
		r.log.Error("Failed to issue reconnect token", "error", err)
	}
	r.deliver(persistentID, event.Registered{PersistentID: persistentID, ReconnectToken: token})
}

// notice sends a soft error event to a participant if reachable. Never
// fatal, never propagated.
func (r *Router) notice(persistentID string, err error) {
	r.log.Debug("Soft notice", "persistent_id", persistentID, "error", err)
	r.deliver(persistentID, event.ErrorNotice{Message: err.Error()})
}

func (r *Router) deliver(persistentID string, e event.Event) {
	sink, ok := r.registry.SinkFor(persistentID)
	if !ok {
		return
	}
	r.push(sink, e)
}

func (r *Router) push(sink contract.EventSink, e event.Event) {
	if err := sink.Deliver(e); err != nil {
		r.log.Warn("Event delivery failed", "event", e.Name(), "error", err)
	}
}

func (r *Router) broadcast(e event.Event) {
	select {
	case r.presence <- e:
	default:
		r.log.Debug("Presence channel full, broadcast lost", "event", e.Name())
	}
}

func agentName(p domain.Participant) string {
	if p.DisplayName == "" {
		return "Agent"
	}
	return p.DisplayName
}
