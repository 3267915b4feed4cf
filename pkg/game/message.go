package game

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageRole mirrors the role names used by chat completion APIs.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is one entry in a session's transcript: a player action, a
// narrator response, or a system note. Messages are append-only; the
// only late mutation allowed is attaching a generated image reference.
type Message struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	Role       MessageRole     `json:"role"`
	Content    string          `json:"content"`
	Embedding  []float32       `json:"embedding,omitempty"`
	Parsed     json.RawMessage `json:"parsed_response,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
	TokenCount int             `json:"token_count,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewMessage creates a transcript entry for the given session.
func NewMessage(sessionID uuid.UUID, role MessageRole, content string) Message {
	return Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// WithEmbedding returns a copy carrying the embedding vector.
func (m Message) WithEmbedding(embedding []float32) Message {
	m.Embedding = embedding
	return m
}

// WithImageURL returns a copy carrying the illustration reference.
func (m Message) WithImageURL(url string) Message {
	m.ImageURL = url
	return m
}

// IsPlayerMessage reports whether the message is a player action.
func (m Message) IsPlayerMessage() bool {
	return m.Role == RoleUser
}

// IsNarratorMessage reports whether the message was generated by the
// narrative model.
func (m Message) IsNarratorMessage() bool {
	return m.Role == RoleAssistant
}

// Summary returns the first 100 characters for log lines.
func (m Message) Summary() string {
	const limit = 100
	if len(m.Content) <= limit {
		return m.Content
	}
	return m.Content[:limit] + "..."
}
