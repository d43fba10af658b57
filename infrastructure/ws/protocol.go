// Package ws carries the socket event contract over websocket. Inbound
// frames are JSON envelopes {event, data}; outbound frames reuse the
// event names the consoles already know.
package ws

import "encoding/json"

// Envelope frames every inbound client message.
type Envelope struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data"`
}

// WireEvent frames every outbound message.
type WireEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type RegisterAgentPayload struct {
	Domain         string `json:"domain" validate:"required"`
	AgentName      string `json:"agent_name" validate:"required"`
	OldAgentID     string `json:"old_agent_id"`
	ReconnectToken string `json:"reconnect_token"`
}

type AgentOfflinePayload struct {
	AgentConnectionID string `json:"agent_connection_id" validate:"required"`
}

type RequestLiveChatPayload struct {
	Domain         string `json:"domain" validate:"required"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	OldUserID      string `json:"old_user_id"`
	ReconnectToken string `json:"reconnect_token"`
}

type SendMessagePayload struct {
	PersistentID string `json:"persistent_id" validate:"required"`
	RecipientID  string `json:"recipient_id"`
	Message      string `json:"message"`
	Image        string `json:"image"`
}

type EndChatPayload struct {
	UserConnectionID string `json:"user_connection_id" validate:"required"`
}

type RestoreChatsPayload struct {
	AgentConnectionID string `json:"agent_connection_id" validate:"required"`
}
