package otp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// otp:attempts:{order_id} -> failed verification count
	KeyAttempts = "otp:attempts:%s"

	DefaultAttemptWindow = time.Hour
)

// AttemptLimiter counts failed verifications per order.
type AttemptLimiter interface {
	Locked(ctx context.Context, orderID string) (bool, error)
	Fail(ctx context.Context, orderID string) (int, error)
	Reset(ctx context.Context, orderID string) error
}

type redisLimiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
}

// NewRedisLimiter locks an order after max failures within window. max <= 0 disables locking.
func NewRedisLimiter(rdb redis.Cmdable, max int, window time.Duration) AttemptLimiter {
	if window <= 0 {
		window = DefaultAttemptWindow
	}
	return &redisLimiter{rdb: rdb, max: max, window: window}
}

func (l *redisLimiter) Locked(ctx context.Context, orderID string) (bool, error) {
	if l.max <= 0 {
		return false, nil
	}
	n, err := l.rdb.Get(ctx, fmt.Sprintf(KeyAttempts, orderID)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= l.max, nil
}

func (l *redisLimiter) Fail(ctx context.Context, orderID string) (int, error) {
	key := fmt.Sprintf(KeyAttempts, orderID)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (l *redisLimiter) Reset(ctx context.Context, orderID string) error {
	return l.rdb.Del(ctx, fmt.Sprintf(KeyAttempts, orderID)).Err()
}

type memoryLimiter struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
}

// NewMemoryLimiter is the single-process counterpart of the Redis limiter.
func NewMemoryLimiter(max int) AttemptLimiter {
	return &memoryLimiter{max: max, counts: map[string]int{}}
}

func (l *memoryLimiter) Locked(_ context.Context, orderID string) (bool, error) {
	if l.max <= 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[orderID] >= l.max, nil
}

func (l *memoryLimiter) Fail(_ context.Context, orderID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[orderID]++
	return l.counts[orderID], nil
}

func (l *memoryLimiter) Reset(_ context.Context, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, orderID)
	return nil
}
