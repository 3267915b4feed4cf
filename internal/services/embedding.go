package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/errors"
)

// Embedder produces fixed-dimension embedding vectors for text.
type Embedder interface {
	// GenerateEmbedding embeds the given text. Empty text is rejected.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

const (
	embeddingCachePrefix = "embedding:hash:"
	embeddingCacheTTL    = 24 * time.Hour
)

// CachedEmbedder wraps an Embedder with a content-hash cache. Repeated
// actions ("go east", "attack with sword") reuse the stored vector
// instead of calling the embedding API again. Cache failures degrade
// to a miss; they never fail the embedding call.
type CachedEmbedder struct {
	embedder Embedder
	cache    Cache
	logger   *slog.Logger
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps embedder with the content-hash cache.
func NewCachedEmbedder(embedder Embedder, cache Cache, logger *slog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}
}

func (c *CachedEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidArgument("cannot generate embedding for empty text")
	}

	hash := sha256.Sum256([]byte(text))
	key := embeddingCachePrefix + hex.EncodeToString(hash[:])

	if cached, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("Embedding cache read failed, regenerating", "error", err)
	} else if cached != "" {
		var embedding []float32
		if err := json.Unmarshal([]byte(cached), &embedding); err == nil {
			c.logger.Debug("Embedding cache hit", "key", key[:len(embeddingCachePrefix)+8])
			return embedding, nil
		}
		c.logger.Warn("Corrupt embedding cache entry, regenerating", "key", key)
	}

	embedding, err := c.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(embedding); err == nil {
		if err := c.cache.Set(ctx, key, string(data), embeddingCacheTTL); err != nil {
			c.logger.Warn("Embedding cache write failed", "error", err)
		}
	}

	return embedding, nil
}
