// Package lock implements short-lived Redis locks shared by every server
// process.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned by Acquire when the context ends before the lock
// could be taken.
var ErrNotAcquired = errors.New("lock: not acquired")

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	expirationPrefix = "lock:expiration:"
	gamePrefix       = "lock:game:"
)

// ExpirationKey is the lock guarding the handling of one expired key.
func ExpirationKey(key string) string { return expirationPrefix + key }

// GameKey is the per-game writer lock.
func GameKey(gameID string) string { return gamePrefix + gameID }

// Locker takes locks with SET NX PX.
type Locker struct {
	rdb redis.Cmdable
	// MinBackoff and MaxBackoff bound the wait between Acquire attempts.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewLocker(rdb redis.Cmdable) *Locker {
	return &Locker{rdb: rdb, MinBackoff: 5 * time.Millisecond, MaxBackoff: 100 * time.Millisecond}
}

// TryAcquire makes a single attempt at key. A nil lock means another process
// holds it; that is not an error.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: set %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{rdb: l.rdb, key: key, token: token}, nil
}

// Lock is a held lock. Release it when done.
type Lock struct {
	rdb   redis.Cmdable
	key   string
	token string
}

// Acquire retries until the lock is taken or ctx ends. The lock expires after
// ttl even if never released.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	wait := l.MinBackoff
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return &Lock{rdb: l.rdb, key: key, token: token}, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}
		wait = min(wait*2, l.MaxBackoff)
	}
}

// Key returns the locked key.
func (lk *Lock) Key() string { return lk.key }

// Release frees the lock if it is still ours. A lock that already expired
// is not an error.
func (lk *Lock) Release(ctx context.Context) error {
	if err := release.Run(ctx, lk.rdb, []string{lk.key}, lk.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lock: release %s: %w", lk.key, err)
	}
	return nil
}
