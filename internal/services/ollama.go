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

// OllamaService implements LLMService and Embedder against a
// self-hosted Ollama instance.
type OllamaService struct {
	baseURL        string
	modelName      string
	embeddingModel string
	httpClient     *http.Client
	logger         *slog.Logger
}

var (
	_ LLMService = (*OllamaService)(nil)
	_ Embedder   = (*OllamaService)(nil)
)

// NewOllamaService creates a new Ollama service instance
func NewOllamaService(baseURL, modelName, embeddingModel string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:        baseURL,
		modelName:      modelName,
		embeddingModel: embeddingModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// InitModel initializes the LLM model by checking if it's available
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName)

	ready, err := s.isModelReady(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to check model readiness: %w", err)
	}

	if !ready {
		s.logger.Info("Model not found, pulling it", "model", modelName)
		if err := s.pullModel(ctx, modelName); err != nil {
			return fmt.Errorf("failed to pull model: %w", err)
		}
		s.logger.Info("Model pulled successfully", "model", modelName)
	}

	return nil
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

// GenerateResponse generates a chat response using the Ollama API
// (non-streaming). The system prompt is prepended as a system message.
func (s *OllamaService) GenerateResponse(ctx context.Context, systemPrompt string, messages []ChatMessage) (*LLMResponse, error) {
	if len(messages) == 0 {
		return nil, errors.InvalidArgument("messages cannot be empty")
	}

	all := make([]ChatMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		all = append(all, ChatMessage{Role: "system", Content: systemPrompt})
	}
	all = append(all, messages...)

	reqBody := ollamaChatRequest{
		Model:    s.modelName,
		Messages: all,
		Stream:   false,
	}

	var chatResp ollamaChatResponse
	if err := s.post(ctx, "/api/chat", reqBody, &chatResp); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "ollama chat failed")
	}

	return &LLMResponse{
		Content: chatResp.Message.Content,
		Model:   chatResp.Model,
		Usage: &TokenUsage{
			PromptTokens:     chatResp.PromptEvalCount,
			CompletionTokens: chatResp.EvalCount,
			TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		},
	}, nil
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// GenerateEmbedding produces an embedding vector for the given text
// using the configured embedding model.
func (s *OllamaService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.InvalidArgument("cannot generate embedding for empty text")
	}

	reqBody := ollamaEmbeddingRequest{
		Model:  s.embeddingModel,
		Prompt: text,
	}

	var embResp ollamaEmbeddingResponse
	if err := s.post(ctx, "/api/embeddings", reqBody, &embResp); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "ollama embedding failed")
	}

	if len(embResp.Embedding) == 0 {
		return nil, errors.Unavailable("ollama returned an empty embedding")
	}

	return embResp.Embedding, nil
}

func (s *OllamaService) post(ctx context.Context, path string, reqBody any, out any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func (s *OllamaService) isModelReady(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("failed to decode tags response: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == modelName {
			return true, nil
		}
	}
	return false, nil
}

func (s *OllamaService) pullModel(ctx context.Context, modelName string) error {
	reqBody := map[string]any{
		"name":   modelName,
		"stream": false,
	}
	var out map[string]any
	return s.post(ctx, "/api/pull", reqBody, &out)
}
