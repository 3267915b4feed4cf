// Package storage persists game state. The interface is deliberately
// wider than any one caller so handlers, the turn engine, and tests
// all share a single backend contract.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// Storage is the persistence contract for sessions, characters,
// scenarios, message history, and account progression. Lookups return
// (nil, nil) when the record does not exist; callers decide whether
// absence is an error.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error
	WaitForConnection(ctx context.Context) error

	GetSession(ctx context.Context, id uuid.UUID) (*game.Session, error)
	SaveSession(ctx context.Context, s game.Session) error

	GetCharacter(ctx context.Context, id uuid.UUID) (*game.Character, error)
	SaveCharacter(ctx context.Context, c game.Character) error

	GetScenario(ctx context.Context, id uuid.UUID) (*game.Scenario, error)
	SaveScenario(ctx context.Context, s game.Scenario) error
	ListScenarios(ctx context.Context) ([]game.Scenario, error)

	// AppendMessage adds a message to the session's history in arrival
	// order.
	AppendMessage(ctx context.Context, m game.Message) error

	// RecentMessages returns up to limit of the newest messages for the
	// session, in chronological order.
	RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]game.Message, error)

	// SimilarMessages returns up to limit messages whose stored
	// embeddings are within the cosine distance threshold of the query
	// embedding, nearest first. Messages without embeddings are skipped.
	SimilarMessages(ctx context.Context, sessionID uuid.UUID, embedding []float32, limit int, threshold float64) ([]game.Message, error)

	GetUserProgression(ctx context.Context, userID uuid.UUID) (*game.UserProgression, error)
	SaveUserProgression(ctx context.Context, p game.UserProgression) error
}
