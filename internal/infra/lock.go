package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("calendar lock not acquired")

// CalendarLocker serializes booking attempts per veterinarian per day, so the
// availability check and the insert happen as one critical section across
// every server instance.
type CalendarLocker interface {
	WithCalendarLock(ctx context.Context, vetID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error
}

type redisCalendarLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCalendarLocker creates a locker keyed by (veterinarian, date).
func NewRedisCalendarLocker(client *redis.Client, ttl time.Duration) CalendarLocker {
	return &redisCalendarLocker{client: client, ttl: ttl}
}

func (l *redisCalendarLocker) WithCalendarLock(ctx context.Context, vetID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:calendar:%s:%s", vetID.String(), day.UTC().Format("2006-01-02"))
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire calendar lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// unlockScript deletes the key only when it still carries our token, so a
// lock that expired and was re-acquired by someone else is never released
// from under them.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisCalendarLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release calendar lock: %w", err)
	}
	return nil
}

// NoopLocker runs the critical section directly. Used by unit tests and by
// deployments without Redis.
type NoopLocker struct{}

func (NoopLocker) WithCalendarLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
