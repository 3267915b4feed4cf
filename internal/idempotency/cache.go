// Package idempotency stores completed turn responses keyed by the
// client-supplied idempotency token, so a retried request replays the
// original outcome instead of consuming a second turn.
package idempotency

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/services"
)

const keyPrefix = "game:idempotency:"

// Kinds of cached responses. A retry must get back the same shape of
// payload the original request produced.
const (
	KindAction = "action"
	KindEnding = "ending"
)

// Record is the cached envelope: which operation produced the payload
// plus the payload itself, stored verbatim.
type Record struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Cache wraps the shared cache with idempotency key handling. All
// reads and writes fail open: a broken cache degrades retries to
// re-execution, it never blocks turn processing.
type Cache struct {
	cache  services.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func New(cache services.Cache, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func key(sessionID, token string) string {
	return keyPrefix + sessionID + ":" + token
}

// Get returns the cached record for the token, or nil when there is no
// hit. Cache errors are logged and reported as misses.
func (c *Cache) Get(ctx context.Context, sessionID, token string) *Record {
	if token == "" {
		return nil
	}

	raw, err := c.cache.Get(ctx, key(sessionID, token))
	if err != nil {
		c.logger.Warn("Idempotency lookup failed, treating as miss",
			"session_id", sessionID, "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		c.logger.Warn("Corrupt idempotency record, treating as miss",
			"session_id", sessionID, "error", err)
		return nil
	}
	return &rec
}

// Put caches the response payload under the token. Failures are logged
// and suppressed: the turn already succeeded, losing replay protection
// is the lesser harm.
func (c *Cache) Put(ctx context.Context, sessionID, token, kind string, payload any) {
	if token == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("Could not marshal idempotency payload",
			"session_id", sessionID, "error", err)
		return
	}
	rec, err := json.Marshal(Record{Kind: kind, Payload: body})
	if err != nil {
		c.logger.Warn("Could not marshal idempotency record",
			"session_id", sessionID, "error", err)
		return
	}

	if err := c.cache.Set(ctx, key(sessionID, token), string(rec), c.ttl); err != nil {
		c.logger.Warn("Could not cache idempotency record",
			"session_id", sessionID, "error", err)
	}
}
