// Package lock provides a named, renewable mutual-exclusion lease
// backed by the shared cache. A background heartbeat extends the lease
// while the holder's critical section runs, so an operation slower
// than the TTL does not lose exclusivity as long as the process is
// alive.
package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/errors"
	"github.com/jwebster45206/adventure-engine/internal/services"
)

const (
	lockKeyPrefix = "lock:"

	// acquirePollInterval is how often a blocked Acquire re-attempts
	// SetNX while waiting for the current holder to release.
	acquirePollInterval = 100 * time.Millisecond
)

// Manager acquires leases on named keys.
type Manager struct {
	cache       services.Cache
	waitTimeout time.Duration
	logger      *slog.Logger
}

// NewManager creates a lease manager. waitTimeout bounds how long an
// Acquire call blocks competing for a held key.
func NewManager(cache services.Cache, waitTimeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		cache:       cache,
		waitTimeout: waitTimeout,
		logger:      logger,
	}
}

// Lease is one held lock. It exists only for the duration of a single
// critical section and must be released on every exit path.
type Lease struct {
	key        string
	token      string
	ttl        time.Duration
	acquiredAt time.Time

	cache  services.Cache
	logger *slog.Logger

	cancelHeartbeat context.CancelFunc
	heartbeatDone   chan struct{}
	releaseOnce     sync.Once
}

// Acquire competes for the named key, blocking up to the manager's
// wait timeout. On success the lease's heartbeat goroutine is already
// running. Failure to win the key within the bound returns a
// LOCK_TIMEOUT error, which callers surface as a retryable condition.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	fullKey := lockKeyPrefix + key
	token := uuid.NewString()

	deadline := time.Now().Add(m.waitTimeout)
	for {
		ok, err := m.cache.SetNX(ctx, fullKey, token, ttl)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "lock backend unavailable")
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, errors.LockTimeout("could not acquire lock " + key)
		}

		select {
		case <-ctx.Done():
			return nil, errors.WrapWithCode(ctx.Err(), errors.CodeLockTimeout, "cancelled while waiting for lock "+key)
		case <-time.After(acquirePollInterval):
		}
	}

	heartbeatCtx, cancel := context.WithCancel(context.Background())
	lease := &Lease{
		key:             fullKey,
		token:           token,
		ttl:             ttl,
		acquiredAt:      time.Now(),
		cache:           m.cache,
		logger:          m.logger,
		cancelHeartbeat: cancel,
		heartbeatDone:   make(chan struct{}),
	}

	go lease.heartbeat(heartbeatCtx)

	return lease, nil
}

// heartbeat extends the remote TTL by the original ttl every ttl/3
// until cancelled. A failed renewal stops the loop but does not
// interrupt the critical section; the section's own release still
// runs.
func (l *Lease) heartbeat(ctx context.Context) {
	defer close(l.heartbeatDone)

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.cache.Expire(ctx, l.key, l.ttl)
			if err != nil {
				l.logger.Warn("Lock renewal failed, stopping heartbeat",
					"key", l.key, "error", err)
				return
			}
			if !ok {
				l.logger.Warn("Lock lease disappeared during renewal",
					"key", l.key)
				return
			}
			l.logger.Debug("Lock lease renewed", "key", l.key, "ttl", l.ttl)
		}
	}
}

// Release stops the heartbeat, waits for it to exit, then deletes the
// remote lease if this lease still owns it. Release failures are
// logged and suppressed: losing an already-expired lock must not fail
// the caller's completed operation. Safe to call more than once.
func (l *Lease) Release(ctx context.Context) {
	l.releaseOnce.Do(func() {
		l.cancelHeartbeat()
		<-l.heartbeatDone

		deleted, err := l.cache.CompareAndDelete(ctx, l.key, l.token)
		if err != nil {
			l.logger.Warn("Lock release failed", "key", l.key, "error", err)
			return
		}
		if !deleted {
			l.logger.Warn("Lock already expired or taken over at release",
				"key", l.key, "held", time.Since(l.acquiredAt))
		}
	})
}
