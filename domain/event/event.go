// Package event defines the events the router emits back to connected
// clients. Each event knows its wire name; the transport marshals the
// struct itself as the payload.
package event

import (
	"time"

	"chat-desk/domain"
)

type Event interface {
	Name() string
}

// Registered acknowledges register_agent / request_live_chat. The
// reconnect token, when presented on a later registration, lets the
// server honor the claimed identity.
type Registered struct {
	PersistentID   string `json:"connection_id"`
	ReconnectToken string `json:"reconnect_token,omitempty"`
}

func (Registered) Name() string { return "registered" }

// LiveChatConnected tells a user it has been paired with an agent.
type LiveChatConnected struct {
	AgentID   string           `json:"agent_connection_id"`
	AgentName string           `json:"agent_name"`
	UserID    string           `json:"user_connection_id"`
	Messages  []domain.Message `json:"messages"`
}

func (LiveChatConnected) Name() string { return "live_chat_connected" }

// LiveChatReconnected replays the full ordered history to a user that
// came back with a known identity bound to an active session.
type LiveChatReconnected struct {
	AgentID   string           `json:"agent_connection_id"`
	AgentName string           `json:"agent_name"`
	UserID    string           `json:"user_connection_id"`
	Messages  []domain.Message `json:"messages"`
}

func (LiveChatReconnected) Name() string { return "live_chat_reconnected" }

// NewLiveChat tells an agent a user has been assigned to it.
type NewLiveChat struct {
	UserID   string `json:"user_connection_id"`
	UserName string `json:"user_name"`
}

func (NewLiveChat) Name() string { return "new_live_chat" }

type UserReconnected struct {
	UserID   string `json:"user_connection_id"`
	UserName string `json:"user_name"`
}

func (UserReconnected) Name() string { return "user_reconnected" }

type NoAgentsAvailable struct {
	Message string `json:"message"`
}

func (NoAgentsAvailable) Name() string { return "no_agents_available" }

// ReceiveMessage is the relay of send_message to the other participant.
type ReceiveMessage struct {
	From    string `json:"from"`
	Message string `json:"message"`
	Image   string `json:"image,omitempty"`
}

func (ReceiveMessage) Name() string { return "receive_message" }

type ChatEnded struct {
	PartnerID string `json:"partner_id"`
}

func (ChatEnded) Name() string { return "chat_ended" }

// AgentStatus is broadcast to every connected console when an agent
// comes online or goes offline.
type AgentStatus struct {
	AgentID string    `json:"agent_connection_id"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

func (AgentStatus) Name() string { return "agent_status" }

// RestoredChat is one entry of a restore_active_chats reply.
type RestoredChat struct {
	UserName string           `json:"userName"`
	Messages []domain.Message `json:"messages"`
}

type RestoreActiveChats struct {
	Chats map[string]RestoredChat `json:"chats"`
}

func (RestoreActiveChats) Name() string { return "restore_active_chats" }

// ErrorNotice is the soft failure surface: dropped events, ended
// sessions, unknown targets. Clients render it as a notice, nothing
// more.
type ErrorNotice struct {
	Message string `json:"message"`
}

func (ErrorNotice) Name() string { return "error" }

// UnreadCount notifies a console of the undelivered message counter for
// one of its active sessions.
type UnreadCount struct {
	PartnerID string `json:"partner_id"`
	Count     int    `json:"count"`
}

func (UnreadCount) Name() string { return "unread_count" }
