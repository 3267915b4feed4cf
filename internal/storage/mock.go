package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/game"
	"github.com/jwebster45206/adventure-engine/pkg/vector"
)

// MockStorage is an in-memory Storage for tests. Error fields let a
// test force specific failures.
type MockStorage struct {
	mu           sync.RWMutex
	sessions     map[uuid.UUID]game.Session
	characters   map[uuid.UUID]game.Character
	scenarios    map[uuid.UUID]game.Scenario
	messages     map[uuid.UUID][]game.Message
	progressions map[uuid.UUID]game.UserProgression

	GetSessionErr      error
	SaveSessionErr     error
	GetCharacterErr    error
	SaveCharacterErr   error
	AppendMessageErr   error
	RecentMessagesErr  error
	SimilarMessagesErr error
	SaveProgressionErr error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions:     make(map[uuid.UUID]game.Session),
		characters:   make(map[uuid.UUID]game.Character),
		scenarios:    make(map[uuid.UUID]game.Scenario),
		messages:     make(map[uuid.UUID][]game.Message),
		progressions: make(map[uuid.UUID]game.UserProgression),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error              { return nil }
func (m *MockStorage) Close() error                                { return nil }
func (m *MockStorage) WaitForConnection(ctx context.Context) error { return nil }

func (m *MockStorage) GetSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	if m.GetSessionErr != nil {
		return nil, m.GetSessionErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s game.Session) error {
	if m.SaveSessionErr != nil {
		return m.SaveSessionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MockStorage) GetCharacter(ctx context.Context, id uuid.UUID) (*game.Character, error) {
	if m.GetCharacterErr != nil {
		return nil, m.GetCharacterErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.characters[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MockStorage) SaveCharacter(ctx context.Context, c game.Character) error {
	if m.SaveCharacterErr != nil {
		return m.SaveCharacterErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[c.ID] = c
	return nil
}

func (m *MockStorage) GetScenario(ctx context.Context, id uuid.UUID) (*game.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockStorage) SaveScenario(ctx context.Context, s game.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ID] = s
	return nil
}

func (m *MockStorage) ListScenarios(ctx context.Context) ([]game.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockStorage) AppendMessage(ctx context.Context, msg game.Message) error {
	if m.AppendMessageErr != nil {
		return m.AppendMessageErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return nil
}

func (m *MockStorage) RecentMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]game.Message, error) {
	if m.RecentMessagesErr != nil {
		return nil, m.RecentMessagesErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.messages[sessionID]
	if limit <= 0 {
		return nil, nil
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]game.Message, len(history))
	copy(out, history)
	return out, nil
}

func (m *MockStorage) SimilarMessages(ctx context.Context, sessionID uuid.UUID, embedding []float32, limit int, threshold float64) ([]game.Message, error) {
	if m.SimilarMessagesErr != nil {
		return nil, m.SimilarMessagesErr
	}
	if limit <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		msg      game.Message
		distance float64
	}
	var candidates []scored
	for _, msg := range m.messages[sessionID] {
		if len(msg.Embedding) == 0 {
			continue
		}
		distance, err := vector.CosineDistance(embedding, msg.Embedding)
		if err != nil {
			continue
		}
		if distance < threshold {
			candidates = append(candidates, scored{msg: msg, distance: distance})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]game.Message, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.msg)
	}
	return out, nil
}

// MessageCount reports stored history length for assertions.
func (m *MockStorage) MessageCount(sessionID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[sessionID])
}

func (m *MockStorage) GetUserProgression(ctx context.Context, userID uuid.UUID) (*game.UserProgression, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progressions[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockStorage) SaveUserProgression(ctx context.Context, p game.UserProgression) error {
	if m.SaveProgressionErr != nil {
		return m.SaveProgressionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progressions[p.UserID] = p
	return nil
}
