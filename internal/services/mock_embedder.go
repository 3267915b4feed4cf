package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/adventure-engine/internal/errors"
)

// MockEmbedder is a mock Embedder for testing. By default it produces
// a deterministic vector derived from the text so similarity behavior
// is stable across runs.
type MockEmbedder struct {
	GenerateEmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

	GenerateEmbeddingCalls []string

	mu sync.Mutex
}

var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a new mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		GenerateEmbeddingCalls: make([]string, 0),
	}
}

func (m *MockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.GenerateEmbeddingCalls = append(m.GenerateEmbeddingCalls, text)
	fn := m.GenerateEmbeddingFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}

	if text == "" {
		return nil, errors.InvalidArgument("cannot generate embedding for empty text")
	}

	// Cheap deterministic embedding: bucket byte values into a small
	// fixed-width vector.
	vec := make([]float32, 8)
	for i, b := range []byte(text) {
		vec[i%len(vec)] += float32(b) / 255.0
	}
	return vec, nil
}

// CallCount returns how many embeddings were requested.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateEmbeddingCalls)
}
