package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const writeBudgetPrefix = "writebudget:"

// WriteLimiter enforces the per-subject answer write budget in Redis.
// The window opens at a subject's first write and closes `window`
// later; at most `budget` writes fit in one window.
type WriteLimiter struct {
	client *Client
	budget int
	window time.Duration
}

// NewWriteLimiter creates a new write limiter
func NewWriteLimiter(client *Client, budget int, window time.Duration) *WriteLimiter {
	return &WriteLimiter{
		client: client,
		budget: budget,
		window: window,
	}
}

// Allow checks whether one more write fits the subject's budget.
// Returns (allowed, remaining, windowReset, error).
func (l *WriteLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	fullKey := fmt.Sprintf("%s%s", writeBudgetPrefix, key)

	pipe := l.client.rdb.Pipeline()

	incrCmd := pipe.Incr(ctx, fullKey)

	// Start the window at the first write only
	pipe.ExpireNX(ctx, fullKey, l.window)

	ttlCmd := pipe.TTL(ctx, fullKey)

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute write budget check: %w", err)
	}

	count := incrCmd.Val()
	remaining := l.budget - int(count)
	if remaining < 0 {
		remaining = 0
	}

	reset := time.Now().Add(l.window)
	if ttl := ttlCmd.Val(); ttl > 0 {
		reset = time.Now().Add(ttl)
	}

	return count <= int64(l.budget), remaining, reset, nil
}

// Reset clears the budget counter for a subject
func (l *WriteLimiter) Reset(ctx context.Context, key string) error {
	fullKey := fmt.Sprintf("%s%s", writeBudgetPrefix, key)
	return l.client.rdb.Del(ctx, fullKey).Err()
}
