package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SetGet(t *testing.T) {
	l := NewLocal(time.Minute, time.Hour)
	defer l.Close()
	ctx := context.Background()

	_, found, err := l.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, l.Set(ctx, "jti-1", true, time.Minute))
	revoked, found, err := l.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, revoked)

	// Negative verdicts are cached too.
	require.NoError(t, l.Set(ctx, "jti-2", false, time.Minute))
	revoked, found, err = l.Get(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, revoked)
}

func TestLocal_TTLExpiry(t *testing.T) {
	l := NewLocal(time.Minute, time.Hour)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Set(ctx, "jti-1", true, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := l.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, found, "entry should have expired")

	// Expired entries are dropped lazily on read.
	assert.Equal(t, 0, l.Stats().Keys)
}

func TestLocal_ZeroTTLUsesDefault(t *testing.T) {
	l := NewLocal(time.Minute, time.Hour)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Set(ctx, "jti-1", true, 0))
	_, found, err := l.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLocal_Delete(t *testing.T) {
	l := NewLocal(time.Minute, time.Hour)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Set(ctx, "jti-1", true, time.Minute))
	require.NoError(t, l.Delete(ctx, "jti-1"))

	_, found, err := l.Get(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is a no-op.
	require.NoError(t, l.Delete(ctx, "jti-missing"))
}

func TestLocal_Stats(t *testing.T) {
	l := NewLocal(time.Minute, time.Hour)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Set(ctx, "jti-1", true, time.Minute))

	_, _, _ = l.Get(ctx, "jti-1")   // hit
	_, _, _ = l.Get(ctx, "jti-1")   // hit
	_, _, _ = l.Get(ctx, "unknown") // miss

	s := l.Stats()
	assert.Equal(t, 1, s.Keys)
	assert.Equal(t, uint64(2), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
}

func TestLocal_JanitorEvicts(t *testing.T) {
	l := NewLocal(time.Minute, 20*time.Millisecond)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Set(ctx, "jti-1", true, 5*time.Millisecond))
	require.NoError(t, l.Set(ctx, "jti-2", true, time.Minute))

	assert.Eventually(t, func() bool {
		return l.Stats().Keys == 1
	}, time.Second, 10*time.Millisecond)
}
