// Package conversations holds the message model and the append-only log of a
// single assistant session.
package conversations

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Kind distinguishes the one-off welcome message from regular dialogue turns.
type Kind string

const (
	// KindWelcome marks the greeting shown while the session is being set up.
	// The log keeps at most one welcome message at a time.
	KindWelcome Kind = "welcome"
	// KindInteraction marks a regular dialogue turn.
	KindInteraction Kind = "interaction"
)

// Source is a web citation substantiating part of a model response.
type Source struct {
	URI   string
	Title string
}

// Message is a single logged dialogue turn.
type Message struct {
	ID        uuid.UUID
	Role      Role
	Kind      Kind
	Text      string
	Sources   []Source
	CreatedAt time.Time
}

// NewMessage creates a message with a fresh identity and timestamp.
func NewMessage(role Role, kind Kind, text string, sources []Source) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Kind:      kind,
		Text:      text,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
}
