// Package domain contains core concepts of the live-chat router.
// This file defines Message values and related rules.
// Messages are immutable once appended to a session.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat line. Text and Image may both be set; an image-only
// message has empty Text.
type Message struct {
	ID     uuid.UUID `json:"id"`
	Sender Role      `json:"sender"`
	Text   string    `json:"message"`
	Image  string    `json:"image,omitempty"`
	At     time.Time `json:"timestamp"`
}
