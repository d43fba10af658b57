package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedConversation is the snapshot taken when a session ends. Live
// routing state never leaves memory; archives do, so agents can browse
// past chats after a restart.
type ArchivedConversation struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    string    `json:"user_connection_id"`
	AgentID   string    `json:"agent_connection_id"`
	UserName  string    `json:"user_name"`
	Domain    string    `json:"domain"`
	Messages  []Message `json:"messages"`
	EndedAt   time.Time `json:"ended_at"`
}
