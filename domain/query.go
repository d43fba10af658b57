package domain

import (
	"time"

	"github.com/google/uuid"
)

type QueryStatus string

const (
	QueryPending  QueryStatus = "pending"
	QueryResolved QueryStatus = "resolved"
)

// Query is an offline ticket left by a user when no live agent could
// help: an email, a message, and the domain it belongs to. Agents
// resolve them out of band.
type Query struct {
	ID         uuid.UUID   `json:"id"`
	EmailID    string      `json:"emailId"`
	UserName   string      `json:"userName"`
	Message    string      `json:"message"`
	Domain     string      `json:"domain"`
	Status     QueryStatus `json:"status"`
	ResolvedBy string      `json:"resolvedBy,omitempty"`
	AgentID    string      `json:"agent_id,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
