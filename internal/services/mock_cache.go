package services

import (
	"context"
	"sync"
	"time"
)

// MockCache is an in-memory Cache implementation for testing. It
// honors TTLs so lock and idempotency expiry behavior can be tested
// without Redis.
type MockCache struct {
	mu      sync.Mutex
	entries map[string]mockEntry

	pingError error

	// Optional error injection per operation.
	GetErr    error
	SetErr    error
	SetNXErr  error
	ExpireErr error
	DelErr    error
}

type mockEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Ensure MockCache implements Cache interface
var _ Cache = (*MockCache)(nil)

// NewMockCache creates an empty mock cache.
func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string]mockEntry)}
}

// SetPingError configures Ping to fail.
func (m *MockCache) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockCache) expired(e mockEntry) bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

func (m *MockCache) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingError
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := mockEntry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.expired(e) {
		delete(m.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (m *MockCache) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	if m.SetNXErr != nil {
		return false, m.SetNXErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && !m.expired(e) {
		return false, nil
	}
	e := mockEntry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	m.entries[key] = e
	return true, nil
}

func (m *MockCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	if m.ExpireErr != nil {
		return false, m.ExpireErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.expired(e) {
		delete(m.entries, key)
		return false, nil
	}
	e.expiresAt = time.Now().Add(expiration)
	m.entries[key] = e
	return true, nil
}

func (m *MockCache) CompareAndDelete(ctx context.Context, key string, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.expired(e) || e.value != value {
		return false, nil
	}
	delete(m.entries, key)
	return true, nil
}

func (m *MockCache) Del(ctx context.Context, keys ...string) error {
	if m.DelErr != nil {
		return m.DelErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *MockCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if e, ok := m.entries[key]; ok && !m.expired(e) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCache) Close() error {
	return nil
}

func (m *MockCache) WaitForConnection(ctx context.Context) error {
	return m.pingError
}
