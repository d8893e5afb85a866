package quota

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perMinute, perDay int) *Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client, perMinute, perDay)
}

func TestAllowWithinLimits(t *testing.T) {
	l := newTestLimiter(t, 10, 100)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, wait, err := l.Allow(ctx, 1)
		require.NoError(t, err)
		assert.True(t, allowed, "send %d should be allowed", i+1)
		assert.Zero(t, wait)
	}

	minute, day := l.Usage(ctx)
	assert.Equal(t, int64(10), minute)
	assert.Equal(t, int64(10), day)
}

func TestAllowMinuteWindowDenial(t *testing.T) {
	l := newTestLimiter(t, 3, 100)
	ctx := context.Background()

	allowed, _, err := l.Allow(ctx, 3)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, wait, err := l.Allow(ctx, 1)
	require.NoError(t, err, "minute denial is not an error")
	assert.False(t, allowed)
	assert.Greater(t, wait.Seconds(), 0.0, "caller should be told how long to wait")

	// the denied reservation must not have consumed quota
	minute, _ := l.Usage(ctx)
	assert.Equal(t, int64(3), minute)
}

func TestAllowDailyExhaustionIsError(t *testing.T) {
	l := newTestLimiter(t, 100, 5)
	ctx := context.Background()

	allowed, _, err := l.Allow(ctx, 5)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = l.Allow(ctx, 1)
	assert.False(t, allowed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily send quota")
}

func TestAllowBatchReservation(t *testing.T) {
	l := newTestLimiter(t, 10, 100)
	ctx := context.Background()

	allowed, _, err := l.Allow(ctx, 8)
	require.NoError(t, err)
	assert.True(t, allowed)

	// 8 + 5 would cross the minute ceiling
	allowed, _, err = l.Allow(ctx, 5)
	require.NoError(t, err)
	assert.False(t, allowed)

	// but 2 more still fit
	allowed, _, err = l.Allow(ctx, 2)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewLimiterFromURLInvalid(t *testing.T) {
	_, err := NewLimiterFromURL("not-a-url", 10, 100)
	require.Error(t, err)
}
