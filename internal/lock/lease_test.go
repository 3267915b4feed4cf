package lock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/errors"
	"github.com/jwebster45206/adventure-engine/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAcquireRelease(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 200*time.Millisecond, testLogger())
	ctx := context.Background()

	lease, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err)
	require.NotNil(t, lease)

	held, err := cache.Exists(ctx, "lock:session:abc")
	require.NoError(t, err)
	assert.True(t, held)

	lease.Release(ctx)

	held, err = cache.Exists(ctx, "lock:session:abc")
	require.NoError(t, err)
	assert.False(t, held, "released lock should be gone")
}

func TestAcquireContended(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 150*time.Millisecond, testLogger())
	ctx := context.Background()

	first, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err)

	_, err = mgr.Acquire(ctx, "session:abc", time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.CodeLockTimeout, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))

	first.Release(ctx)

	second, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err, "lock should be free after release")
	second.Release(ctx)
}

func TestAcquireWaitsForRelease(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 2*time.Second, testLogger())
	ctx := context.Background()

	first, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(250 * time.Millisecond)
		first.Release(context.Background())
	}()

	start := time.Now()
	second, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond,
		"second acquire should have blocked on the first holder")
	second.Release(ctx)
}

func TestAcquireIndependentKeys(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 100*time.Millisecond, testLogger())
	ctx := context.Background()

	a, err := mgr.Acquire(ctx, "session:aaa", time.Second)
	require.NoError(t, err)
	b, err := mgr.Acquire(ctx, "session:bbb", time.Second)
	require.NoError(t, err, "distinct keys must not contend")

	a.Release(ctx)
	b.Release(ctx)
}

func TestAcquireContextCancelled(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 5*time.Second, testLogger())

	first, err := mgr.Acquire(context.Background(), "session:abc", time.Second)
	require.NoError(t, err)
	defer first.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err = mgr.Acquire(ctx, "session:abc", time.Second)
	require.Error(t, err)
	assert.Equal(t, errors.CodeLockTimeout, errors.CodeOf(err))
}

func TestHeartbeatRenews(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 100*time.Millisecond, testLogger())
	ctx := context.Background()

	// Short TTL so the heartbeat fires several times during the test.
	lease, err := mgr.Acquire(ctx, "session:abc", 150*time.Millisecond)
	require.NoError(t, err)
	defer lease.Release(ctx)

	// Well past the original TTL; renewal must have kept the key alive.
	time.Sleep(400 * time.Millisecond)

	held, err := cache.Exists(ctx, "lock:session:abc")
	require.NoError(t, err)
	assert.True(t, held, "heartbeat should keep the lease alive past its TTL")
}

func TestReleaseAfterExpiry(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 100*time.Millisecond, testLogger())
	ctx := context.Background()

	lease, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err)

	// Simulate expiry plus takeover by another holder.
	require.NoError(t, cache.Del(ctx, "lock:session:abc"))
	require.NoError(t, cache.Set(ctx, "lock:session:abc", "someone-else", time.Second))

	// Must not delete the new holder's lease, and must not panic or error.
	lease.Release(ctx)

	val, err := cache.Get(ctx, "lock:session:abc")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestDoubleReleaseSafe(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 100*time.Millisecond, testLogger())
	ctx := context.Background()

	lease, err := mgr.Acquire(ctx, "session:abc", time.Second)
	require.NoError(t, err)

	lease.Release(ctx)
	lease.Release(ctx)
}

func TestAcquireUniqueTokens(t *testing.T) {
	cache := services.NewMockCache()
	mgr := NewManager(cache, 100*time.Millisecond, testLogger())
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("session:%d", i)
		lease, err := mgr.Acquire(ctx, key, time.Second)
		require.NoError(t, err)
		assert.False(t, seen[lease.token], "lease tokens must be unique")
		seen[lease.token] = true
		lease.Release(ctx)
	}
}
