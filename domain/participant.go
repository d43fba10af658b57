// Package domain contains core concepts of the live-chat router.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Participant is one side of a live chat. ConnectionID is the current
// transport handle and changes on every reconnect; PersistentID is minted
// once and never reassigned.
type Participant struct {
	ConnectionID string
	PersistentID string
	DisplayName  string
	Role         Role
	Domain       string
}
