package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
)

// QuotationAcceptLockKey builds the redis key guarding acceptance side effects.
func QuotationAcceptLockKey(quotationID uuid.UUID) string {
	return fmt.Sprintf("lock:quotation:%s:accept", quotationID)
}

// SequenceLockKey builds the redis key guarding code allocation for a prefix.
func SequenceLockKey(prefix string) string {
	return "lock:seq:" + strings.ToUpper(prefix)
}

// Locker obtains short-lived distributed locks.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RedisLocker adapts redislock. Locks are best effort: callers keep going
// when a lock is not obtained because storage constraints remain authoritative.
type RedisLocker struct {
	client *redislock.Client
	logger *slog.Logger
	wait   time.Duration
}

// NewRedisLocker constructs the locker. wait bounds how long Acquire retries.
func NewRedisLocker(client *redislock.Client, logger *slog.Logger, wait time.Duration) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, logger: logger, wait: wait}
}

// ErrLockNotObtained is returned when the lock is held elsewhere past the wait window.
var ErrLockNotObtained = errors.New("lock not obtained")

// Acquire obtains key for ttl, retrying linearly for the configured wait.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	opts := &redislock.Options{}
	if l.wait > 0 {
		opts.RetryStrategy = redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(l.wait/(50*time.Millisecond)))
	}
	lock, err := l.client.Obtain(ctx, key, ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, ErrLockNotObtained
	}
	if err != nil {
		return func() {}, err
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("release lock", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
