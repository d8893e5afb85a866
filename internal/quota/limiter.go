// Package quota enforces the outbound send ceiling shared by every notifier
// run in the process (and across processes, since counters live in Redis).
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/transsahel/colis-tracker/internal/pkg/logger"
)

// ErrDailyQuotaExceeded is returned by Allow when the daily ceiling is
// already consumed. Unlike a minute-window denial this does not clear on
// its own within a batch run, so callers should stop rather than wait.
var ErrDailyQuotaExceeded = errors.New("daily send quota exceeded")

// Limiter provides atomic minute/day send-quota accounting using a Redis
// Lua script. The GET → check → INCR pattern races under concurrent
// notifier runs; the script checks both windows and increments both
// counters in one atomic step.
type Limiter struct {
	redis     *redis.Client
	script    *redis.Script
	perMinute int
	perDay    int
}

const checkAndIncrementScript = `
local minuteKey = KEYS[1]
local dailyKey = KEYS[2]
local increment = tonumber(ARGV[1])
local minuteLimit = tonumber(ARGV[2])
local dailyLimit = tonumber(ARGV[3])

local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local dayCurrent = tonumber(redis.call("GET", dailyKey) or "0")

if minCurrent + increment > minuteLimit then
    return {0, 1}
end
if dayCurrent + increment > dailyLimit then
    return {0, 2}
end

local newMin = redis.call("INCRBY", minuteKey, increment)
if newMin == increment then
    redis.call("EXPIRE", minuteKey, 120)
end

local newDay = redis.call("INCRBY", dailyKey, increment)
if newDay == increment then
    redis.call("EXPIRE", dailyKey, 90000)
end

return {1, 0}
`

// NewLimiter creates a limiter with the given per-minute and per-day
// ceilings.
func NewLimiter(client *redis.Client, perMinute, perDay int) *Limiter {
	return &Limiter{
		redis:     client,
		script:    redis.NewScript(checkAndIncrementScript),
		perMinute: perMinute,
		perDay:    perDay,
	}
}

// NewLimiterFromURL connects to Redis and returns a limiter.
func NewLimiterFromURL(redisURL string, perMinute, perDay int) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewLimiter(client, perMinute, perDay), nil
}

// Allow atomically checks and reserves n sends. When denied, waitTime is
// how long the caller should pause before trying again. A daily-limit
// denial returns an error because waiting a minute will not help.
func (l *Limiter) Allow(ctx context.Context, n int) (allowed bool, waitTime time.Duration, err error) {
	now := time.Now()
	minuteKey := fmt.Sprintf("quota:send:min:%d", now.Unix()/60)
	dailyKey := fmt.Sprintf("quota:send:day:%s", now.Format("2006-01-02"))

	result, err := l.script.Run(ctx, l.redis,
		[]string{minuteKey, dailyKey},
		n, l.perMinute, l.perDay,
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("quota check failed: %w", err)
	}

	if result[0].(int64) == 1 {
		return true, 0, nil
	}

	switch result[1].(int64) {
	case 1:
		return false, time.Duration(60-now.Second()) * time.Second, nil
	default:
		return false, 0, fmt.Errorf("%w: limit %d", ErrDailyQuotaExceeded, l.perDay)
	}
}

// Usage reports current counter values for both windows.
func (l *Limiter) Usage(ctx context.Context) (minute, day int64) {
	now := time.Now()
	minuteKey := fmt.Sprintf("quota:send:min:%d", now.Unix()/60)
	dailyKey := fmt.Sprintf("quota:send:day:%s", now.Format("2006-01-02"))

	pipe := l.redis.Pipeline()
	minCmd := pipe.Get(ctx, minuteKey)
	dayCmd := pipe.Get(ctx, dailyKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logger.Warn("quota usage read failed", "error", err.Error())
	}

	minute, _ = minCmd.Int64()
	day, _ = dayCmd.Int64()
	return minute, day
}

// Close closes the Redis connection.
func (l *Limiter) Close() error { return l.redis.Close() }
