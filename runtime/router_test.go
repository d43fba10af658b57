package runtime

import (
	"log/slog"
	"testing"
	"time"

	"chat-desk/auth"
	"chat-desk/domain"
	"chat-desk/domain/event"
	"chat-desk/observability"
	"chat-desk/runtime/workers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordSink captures delivered events for assertions.
type recordSink struct {
	events []event.Event
}

func (s *recordSink) Deliver(e event.Event) error {
	s.events = append(s.events, e)
	return nil
}

func (s *recordSink) Close() {}

func (s *recordSink) named(name string) []event.Event {
	var out []event.Event
	for _, e := range s.events {
		if e.Name() == name {
			out = append(out, e)
		}
	}
	return out
}

type routerFixture struct {
	router   *Router
	registry *Registry
	sessions *SessionStore
	queue    *domain.DomainQueue
}

func newRouterFixture(t *testing.T, reconnectWindow time.Duration) *routerFixture {
	t.Helper()
	log := slog.Default()
	registry := NewRegistry()
	sessions := NewSessionStore()
	queue := domain.NewDomainQueue()
	tokens := auth.NewTokenIssuer("router_test_secret", time.Hour)
	router := NewRouter(log, workers.NewSupervisor(log), registry, sessions, queue,
		tokens, nil, observability.NewMonitor(),
		64, reconnectWindow, time.Second)
	return &routerFixture{router: router, registry: registry, sessions: sessions, queue: queue}
}

// connectAgent registers an agent over a fresh connection and returns
// its persistent id with the recording sink.
func (f *routerFixture) connectAgent(t *testing.T, dom, name string) (string, *recordSink) {
	t.Helper()
	connectionID := uuid.NewString()
	sink := &recordSink{}
	f.registry.Attach(connectionID, sink)
	f.router.handle(domain.RegisterAgentCommand{ConnectionID: connectionID, Domain: dom, AgentName: name})

	acks := sink.named("registered")
	require.Len(t, acks, 1)
	return acks[0].(event.Registered).PersistentID, sink
}

// connectUser requests a live chat over a fresh connection.
func (f *routerFixture) connectUser(t *testing.T, dom, name string) (string, *recordSink) {
	t.Helper()
	connectionID := uuid.NewString()
	sink := &recordSink{}
	f.registry.Attach(connectionID, sink)
	f.router.handle(domain.RequestLiveChatCommand{ConnectionID: connectionID, Domain: dom, UserName: name})

	acks := sink.named("registered")
	require.Len(t, acks, 1)
	return acks[0].(event.Registered).PersistentID, sink
}

func TestRouter_PairsUserWithIdleAgent(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, agentSink := f.connectAgent(t, "billing", "Clara")
	userID, userSink := f.connectUser(t, "billing", "Alice")

	// The user is paired immediately with an empty history
	connected := userSink.named("live_chat_connected")
	req.Len(connected, 1)
	paired := connected[0].(event.LiveChatConnected)
	req.Equal(agentID, paired.AgentID)
	req.Equal("Clara", paired.AgentName)
	req.Empty(paired.Messages)

	// The agent learns about its new chat
	assigned := agentSink.named("new_live_chat")
	req.Len(assigned, 1)
	req.Equal(userID, assigned[0].(event.NewLiveChat).UserID)
	req.Equal("Alice", assigned[0].(event.NewLiveChat).UserName)
}

func TestRouter_QueuedUsersArePairedInArrivalOrder(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, _ := f.connectAgent(t, "billing", "Clara")
	firstUser, firstSink := f.connectUser(t, "billing", "Alice")
	secondUser, secondSink := f.connectUser(t, "billing", "Bob")
	_, thirdSink := f.connectUser(t, "billing", "Carol")

	// One agent, three users: only the first is paired
	req.Len(firstSink.named("live_chat_connected"), 1)
	req.Empty(secondSink.named("live_chat_connected"))
	req.Empty(thirdSink.named("live_chat_connected"))
	// Agents exist, so nobody hears no_agents_available
	req.Empty(secondSink.named("no_agents_available"))
	req.Empty(thirdSink.named("no_agents_available"))

	// Ending the first chat hands the agent to the oldest waiting user
	f.router.handle(domain.EndChatCommand{ParticipantID: firstUser})
	req.Len(secondSink.named("live_chat_connected"), 1)
	req.Empty(thirdSink.named("live_chat_connected"))
	req.Equal(agentID, secondSink.named("live_chat_connected")[0].(event.LiveChatConnected).AgentID)

	f.router.handle(domain.EndChatCommand{ParticipantID: secondUser})
	req.Len(thirdSink.named("live_chat_connected"), 1)
}

func TestRouter_NoAgentsAvailable_OnlyWhenNoneRegistered(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	// Empty domain: the user is told no agent exists
	_, lonelySink := f.connectUser(t, "shipping", "Alice")
	req.Len(lonelySink.named("no_agents_available"), 1)

	// An agent arriving later picks the waiting user up
	_, _ = f.connectAgent(t, "shipping", "Clara")
	req.Len(lonelySink.named("live_chat_connected"), 1)
}

func TestRouter_RelaysMessagesVerbatimInOrder(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, agentSink := f.connectAgent(t, "billing", "Clara")
	userID, userSink := f.connectUser(t, "billing", "Alice")

	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "hello"})
	f.router.handle(domain.SendMessageCommand{SenderID: agentID, Text: "hi, how can I help?"})
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "it is about my invoice"})

	agentInbox := agentSink.named("receive_message")
	req.Len(agentInbox, 2)
	req.Equal("hello", agentInbox[0].(event.ReceiveMessage).Message)
	req.Equal(userID, agentInbox[0].(event.ReceiveMessage).From)
	req.Equal("it is about my invoice", agentInbox[1].(event.ReceiveMessage).Message)

	userInbox := userSink.named("receive_message")
	req.Len(userInbox, 1)
	req.Equal("hi, how can I help?", userInbox[0].(event.ReceiveMessage).Message)

	// The session history holds all three in send order
	session, ok := f.sessions.FindByParticipant(userID)
	req.True(ok)
	history := session.History()
	req.Len(history, 3)
	req.Equal("hello", history[0].Text)
	req.Equal("hi, how can I help?", history[1].Text)
	req.Equal("it is about my invoice", history[2].Text)
}

func TestRouter_SendMessage_UnknownSenderIsSoftError(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	// A sender the registry never saw cannot reach anyone; nothing blows up
	f.router.handle(domain.SendMessageCommand{SenderID: uuid.NewString(), Text: "into the void"})
	req.Zero(f.sessions.ActiveCount())
}

func TestRouter_SendMessage_UnpairedSenderGetsNotice(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	// A queued (unpaired) user sending a message gets a soft error event
	userID, userSink := f.connectUser(t, "billing", "Alice")
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "anyone there?"})

	req.Len(userSink.named("error"), 1)
	req.Empty(userSink.named("receive_message"))
}

func TestRouter_EndChat_IsIdempotentAndFreesTheAgent(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, agentSink := f.connectAgent(t, "billing", "Clara")
	userID, userSink := f.connectUser(t, "billing", "Alice")
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "hello"})

	f.router.handle(domain.EndChatCommand{ParticipantID: userID})
	f.router.handle(domain.EndChatCommand{ParticipantID: userID})
	f.router.handle(domain.EndChatCommand{ParticipantID: agentID})

	// Exactly one chat_ended per side despite the repeats
	req.Len(userSink.named("chat_ended"), 1)
	req.Len(agentSink.named("chat_ended"), 1)
	req.Zero(f.sessions.ActiveCount())

	// The agent is idle again
	req.Equal(1, f.queue.IdleCount("billing"))
}

func TestRouter_EndChat_ArchivesTheConversation(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, _ := f.connectAgent(t, "billing", "Clara")
	userID, _ := f.connectUser(t, "billing", "Alice")
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "hello"})
	f.router.handle(domain.EndChatCommand{ParticipantID: agentID})

	select {
	case snapshot := <-f.router.archive:
		req.Equal(userID, snapshot.UserID)
		req.Equal(agentID, snapshot.AgentID)
		req.Equal("Alice", snapshot.UserName)
		req.Equal("billing", snapshot.Domain)
		req.Len(snapshot.Messages, 1)
	default:
		t.Fatal("expected an archived conversation snapshot")
	}
}

func TestRouter_UserReconnect_ReplaysFullHistory(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, agentSink := f.connectAgent(t, "billing", "Clara")
	userID, userSink := f.connectUser(t, "billing", "Alice")
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "hello"})
	f.router.handle(domain.SendMessageCommand{SenderID: agentID, Text: "one moment"})

	// The user drops; the agent keeps typing into the same session
	userConn, _ := f.registry.Participant(userID)
	f.router.handle(domain.DisconnectCommand{ConnectionID: userConn.ConnectionID})
	f.router.handle(domain.SendMessageCommand{SenderID: agentID, Text: "found it"})

	// The user returns with its reconnect token
	token := userSink.named("registered")[0].(event.Registered).ReconnectToken
	req.NotEmpty(token)
	newConn := uuid.NewString()
	newSink := &recordSink{}
	f.registry.Attach(newConn, newSink)
	f.router.handle(domain.RequestLiveChatCommand{
		ConnectionID: newConn, Domain: "billing", UserName: "Alice", ReconnectToken: token,
	})

	// Same identity, same session, full ordered history replayed
	req.Equal(userID, newSink.named("registered")[0].(event.Registered).PersistentID)
	replays := newSink.named("live_chat_reconnected")
	req.Len(replays, 1)
	replay := replays[0].(event.LiveChatReconnected)
	req.Equal(agentID, replay.AgentID)
	req.Len(replay.Messages, 3)
	req.Equal("hello", replay.Messages[0].Text)
	req.Equal("one moment", replay.Messages[1].Text)
	req.Equal("found it", replay.Messages[2].Text)

	// The agent is told its user is back, and was never re-queued
	req.Len(agentSink.named("user_reconnected"), 1)
	req.Equal(1, f.sessions.ActiveCount())
	req.Zero(f.queue.PendingCount("billing"))
}

func TestRouter_ForgedReconnectToken_YieldsFreshIdentity(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)
	f.connectAgent(t, "billing", "Clara")
	userID, _ := f.connectUser(t, "billing", "Alice")

	// A token signed by someone else is silently ignored
	forged, err := auth.NewTokenIssuer("other_secret", time.Hour).Issue(userID, "user")
	req.NoError(err)
	newConn := uuid.NewString()
	newSink := &recordSink{}
	f.registry.Attach(newConn, newSink)
	f.router.handle(domain.RequestLiveChatCommand{
		ConnectionID: newConn, Domain: "billing", UserName: "Mallory", ReconnectToken: forged,
	})

	got := newSink.named("registered")[0].(event.Registered).PersistentID
	req.NotEqual(userID, got)
	req.Empty(newSink.named("live_chat_reconnected"))
}

func TestRouter_AgentReconnect_StaysBusyWhilePaired(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, agentSink := f.connectAgent(t, "billing", "Clara")
	userID, _ := f.connectUser(t, "billing", "Alice")
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "hello"})

	agent, _ := f.registry.Participant(agentID)
	f.router.handle(domain.DisconnectCommand{ConnectionID: agent.ConnectionID})

	// Re-registering mid-session must not make the agent idle
	token := agentSink.named("registered")[0].(event.Registered).ReconnectToken
	newConn := uuid.NewString()
	newSink := &recordSink{}
	f.registry.Attach(newConn, newSink)
	f.router.handle(domain.RegisterAgentCommand{
		ConnectionID: newConn, Domain: "billing", AgentName: "Clara", ReconnectToken: token,
	})

	req.Equal(agentID, newSink.named("registered")[0].(event.Registered).PersistentID)
	req.Zero(f.queue.IdleCount("billing"))
	req.True(f.queue.HasAgents("billing"))

	// restore_chats replays the session with its unread counter
	f.router.handle(domain.RestoreChatsCommand{AgentID: agentID})
	restored := newSink.named("restore_active_chats")
	req.Len(restored, 1)
	chats := restored[0].(event.RestoreActiveChats).Chats
	req.Contains(chats, userID)
	req.Equal("Alice", chats[userID].UserName)
	req.Len(chats[userID].Messages, 1)
}

func TestRouter_OfflineRecipient_CountsUnread(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, _ := f.connectAgent(t, "billing", "Clara")
	userID, _ := f.connectUser(t, "billing", "Alice")

	agent, _ := f.registry.Participant(agentID)
	f.router.handle(domain.DisconnectCommand{ConnectionID: agent.ConnectionID})
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "are you there?"})
	f.router.handle(domain.SendMessageCommand{SenderID: userID, Text: "hello?"})

	session, ok := f.sessions.FindByParticipant(userID)
	req.True(ok)
	req.Equal(2, session.Unread(agentID))

	// The reconnecting agent is told the counter before the replay
	token := ""
	newConn := uuid.NewString()
	newSink := &recordSink{}
	f.registry.Attach(newConn, newSink)
	f.router.handle(domain.RegisterAgentCommand{
		ConnectionID: newConn, Domain: "billing", AgentName: "Clara",
		ClaimedID: agentID, ReconnectToken: token,
	})
	f.router.handle(domain.RestoreChatsCommand{AgentID: agentID})

	counts := newSink.named("unread_count")
	req.Len(counts, 1)
	req.Equal(2, counts[0].(event.UnreadCount).Count)
	req.Equal(userID, counts[0].(event.UnreadCount).PartnerID)
	req.Zero(session.Unread(agentID))
}

func TestRouter_SweepEndsAbandonedSessions(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, 10*time.Millisecond)

	f.connectAgent(t, "billing", "Clara")
	userID, _ := f.connectUser(t, "billing", "Alice")

	user, _ := f.registry.Participant(userID)
	f.router.handle(domain.DisconnectCommand{ConnectionID: user.ConnectionID})

	// Inside the window the session survives
	f.router.handle(sweepCommand{})
	req.Equal(1, f.sessions.ActiveCount())

	time.Sleep(20 * time.Millisecond)
	f.router.handle(sweepCommand{})
	req.Zero(f.sessions.ActiveCount())
	// The agent went back to the idle pool
	req.Equal(1, f.queue.IdleCount("billing"))
}

func TestRouter_DisconnectedPendingUserLeavesTheQueue(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	userID, _ := f.connectUser(t, "billing", "Alice")
	req.Equal(1, f.queue.PendingCount("billing"))

	user, _ := f.registry.Participant(userID)
	f.router.handle(domain.DisconnectCommand{ConnectionID: user.ConnectionID})
	req.Zero(f.queue.PendingCount("billing"))

	// An agent arriving now has nobody to serve
	_, agentSink := f.connectAgent(t, "billing", "Clara")
	req.Empty(agentSink.named("new_live_chat"))
}

func TestRouter_AgentOffline_RemovesCapacity(t *testing.T) {
	req := require.New(t)
	f := newRouterFixture(t, time.Minute)

	agentID, _ := f.connectAgent(t, "billing", "Clara")
	f.router.handle(domain.AgentOfflineCommand{AgentID: agentID})

	req.False(f.queue.HasAgents("billing"))

	// The next user is told there is no capacity at all
	_, userSink := f.connectUser(t, "billing", "Alice")
	req.Len(userSink.named("no_agents_available"), 1)
}
