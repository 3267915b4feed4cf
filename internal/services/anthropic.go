package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/errors"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048

	llmMaxAttempts    = 3
	llmBackoffInitial = 1 * time.Second
)

// AnthropicService implements LLMService for Anthropic Claude
type AnthropicService struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*AnthropicService)(nil)

type AnthropicChatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type AnthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []AnthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicService creates a new Anthropic narrative generator.
func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// InitModel is a no-op for Anthropic; models are hosted remotely.
func (a *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

// GenerateResponse generates a narrative continuation using the
// Anthropic messages API. Transient failures are retried with
// exponential backoff; quota exhaustion is returned immediately as a
// non-retryable upstream error.
func (a *AnthropicService) GenerateResponse(ctx context.Context, systemPrompt string, messages []ChatMessage) (*LLMResponse, error) {
	if len(messages) == 0 {
		return nil, errors.InvalidArgument("messages cannot be empty")
	}

	var lastErr error
	backoff := llmBackoffInitial
	for attempt := 1; attempt <= llmMaxAttempts; attempt++ {
		resp, err := a.chatCompletion(ctx, systemPrompt, messages)
		if err == nil {
			return resp, nil
		}
		if errors.CodeOf(err) == errors.CodeUnavailable || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		a.logger.Warn("Anthropic request failed, retrying",
			"attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return nil, errors.WrapWithCode(lastErr, errors.CodeUnavailable,
		"narrative generator failed after retries")
}

func (a *AnthropicService) chatCompletion(ctx context.Context, systemPrompt string, messages []ChatMessage) (*LLMResponse, error) {
	temperature := DefaultAnthropicTemperature
	anthropicReq := AnthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages:    messages,
		System:      systemPrompt,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicBaseURL+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// 429 means quota exhaustion; retrying inside this request would
	// only burn more of the budget.
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Unavailable("anthropic quota exceeded")
	}

	var anthropicResp AnthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if anthropicResp.Error != nil {
		return nil, fmt.Errorf("anthropic API error: %s: %s", anthropicResp.Error.Type, anthropicResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API returned status %d", resp.StatusCode)
	}

	var content string
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &LLMResponse{
		Content: content,
		Model:   anthropicResp.Model,
		Usage: &TokenUsage{
			PromptTokens:     anthropicResp.Usage.InputTokens,
			CompletionTokens: anthropicResp.Usage.OutputTokens,
			TotalTokens:      anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
		},
	}, nil
}
