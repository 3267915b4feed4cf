package services

import (
	"context"

	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// TokenUsage reports what a generation cost.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMResponse is the provider-neutral result of one generation call.
type LLMResponse struct {
	Content string      `json:"content"`
	Model   string      `json:"model"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// ChatMessage is a single entry in the conversation sent to the model.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// LLMService defines the interface for the narrative generator. A
// failed call is surfaced to the caller; implementations retry
// transient errors internally but never swallow a final failure.
type LLMService interface {
	// InitModel prepares the model on startup.
	InitModel(ctx context.Context, modelName string) error

	// GenerateResponse generates a narrative continuation from a system
	// prompt and conversation history.
	GenerateResponse(ctx context.Context, systemPrompt string, messages []ChatMessage) (*LLMResponse, error)
}

// HistoryToChatMessages converts transcript messages into the chat
// shape the providers expect.
func HistoryToChatMessages(history []game.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		out = append(out, ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
