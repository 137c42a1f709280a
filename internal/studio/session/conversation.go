package session

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the append-only exchange log of one refinement session.
type Conversation struct {
	turns []ChatMessage
}

func NewConversation() *Conversation {
	return &Conversation{turns: []ChatMessage{}}
}

// Append records one turn and returns it.
func (c *Conversation) Append(role, text, image string) ChatMessage {
	m := ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Text:      text,
		Image:     image,
		CreatedAt: time.Now().UTC(),
	}
	c.turns = append(c.turns, m)
	return m
}

// Turns returns all turns in order.
func (c *Conversation) Turns() []ChatMessage {
	out := make([]ChatMessage, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len reports the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}
