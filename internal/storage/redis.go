package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/game"
	"github.com/jwebster45206/adventure-engine/pkg/vector"
)

const (
	sessionKeyPrefix     = "game:session:"
	characterKeyPrefix   = "game:character:"
	scenarioKeyPrefix    = "game:scenario:"
	scenarioIndexKey     = "game:scenarios"
	messagesKeyPrefix    = "game:messages:"
	progressionKeyPrefix = "game:progression:"
)

// RedisStorage implements Storage on Redis. Records are stored as JSON
// strings under typed key prefixes; message history is a per-session
// list in arrival order.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

// NewRedisStorageWithClient wraps an existing client, used by tests
// running against miniredis.
func NewRedisStorageWithClient(client *redis.Client, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// getJSON loads and unmarshals the record at key into dest. Returns
// false when the key does not exist.
func (r *RedisStorage) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStorage) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	var s game.Session
	found, err := r.getJSON(ctx, sessionKeyPrefix+id.String(), &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, s game.Session) error {
	return r.setJSON(ctx, sessionKeyPrefix+s.ID.String(), s)
}

func (r *RedisStorage) GetCharacter(ctx context.Context, id uuid.UUID) (*game.Character, error) {
	var c game.Character
	found, err := r.getJSON(ctx, characterKeyPrefix+id.String(), &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (r *RedisStorage) SaveCharacter(ctx context.Context, c game.Character) error {
	return r.setJSON(ctx, characterKeyPrefix+c.ID.String(), c)
}

func (r *RedisStorage) GetScenario(ctx context.Context, id uuid.UUID) (*game.Scenario, error) {
	var s game.Scenario
	found, err := r.getJSON(ctx, scenarioKeyPrefix+id.String(), &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStorage) SaveScenario(ctx context.Context, s game.Scenario) error {
	if err := r.setJSON(ctx, scenarioKeyPrefix+s.ID.String(), s); err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, scenarioIndexKey, s.ID.String()).Err(); err != nil {
		r.logger.Error("Redis SADD failed", "key", scenarioIndexKey, "error", err)
		return fmt.Errorf("redis sadd failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListScenarios(ctx context.Context) ([]game.Scenario, error) {
	ids, err := r.client.SMembers(ctx, scenarioIndexKey).Result()
	if err != nil {
		r.logger.Error("Redis SMEMBERS failed", "key", scenarioIndexKey, "error", err)
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}

	scenarios := make([]game.Scenario, 0, len(ids))
	for _, id := range ids {
		var s game.Scenario
		found, err := r.getJSON(ctx, scenarioKeyPrefix+id, &s)
		if err != nil {
			return nil, err
		}
		if !found {
			// Index entry with no record, likely a partial delete.
			r.logger.Warn("Scenario indexed but missing", "scenario_id", id)
			continue
		}
		scenarios = append(scenarios, s)
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Name < scenarios[j].Name
	})
	return scenarios, nil
}

func (r *RedisStorage) AppendMessage(ctx context.Context, m game.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := messagesKeyPrefix + m.SessionID.String()
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		r.logger.Error("Redis RPUSH failed", "key", key, "error", err)
		return fmt.Errorf("redis rpush failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]game.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	key := messagesKeyPrefix + sessionID.String()
	raw, err := r.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		r.logger.Error("Redis LRANGE failed", "key", key, "error", err)
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}

	return unmarshalMessages(raw)
}

func (r *RedisStorage) allMessages(ctx context.Context, sessionID uuid.UUID) ([]game.Message, error) {
	key := messagesKeyPrefix + sessionID.String()
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		r.logger.Error("Redis LRANGE failed", "key", key, "error", err)
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}
	return unmarshalMessages(raw)
}

func unmarshalMessages(raw []string) ([]game.Message, error) {
	messages := make([]game.Message, 0, len(raw))
	for _, item := range raw {
		var m game.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// SimilarMessages scans the session's history and ranks stored
// embeddings by cosine distance to the query. History is bounded by
// session turn limits, so a linear scan is acceptable here; a vector
// index would only pay off at corpus scale.
func (r *RedisStorage) SimilarMessages(ctx context.Context, sessionID uuid.UUID, embedding []float32, limit int, threshold float64) ([]game.Message, error) {
	if limit <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	all, err := r.allMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	type scored struct {
		msg      game.Message
		distance float64
	}

	candidates := make([]scored, 0, len(all))
	for _, m := range all {
		if len(m.Embedding) == 0 {
			continue
		}
		distance, err := vector.CosineDistance(embedding, m.Embedding)
		if err != nil {
			r.logger.Warn("Skipping message with bad embedding",
				"message_id", m.ID, "error", err)
			continue
		}
		if distance < threshold {
			candidates = append(candidates, scored{msg: m, distance: distance})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]game.Message, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.msg)
	}
	return results, nil
}

func (r *RedisStorage) GetUserProgression(ctx context.Context, userID uuid.UUID) (*game.UserProgression, error) {
	var p game.UserProgression
	found, err := r.getJSON(ctx, progressionKeyPrefix+userID.String(), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (r *RedisStorage) SaveUserProgression(ctx context.Context, p game.UserProgression) error {
	return r.setJSON(ctx, progressionKeyPrefix+p.UserID.String(), p)
}
