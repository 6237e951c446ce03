// Package expiration turns Redis key expiry notifications into game actions.
// Every process receives every notification; a lock held while handling
// makes sure only one of them acts on it.
package expiration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/lock"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/metrics"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

// Executor runs a synthesized action.
type Executor interface {
	Execute(ctx context.Context, a action.GameAction) (action.Result, error)
}

// Store is the part of the game store expiry handling writes to.
type Store interface {
	// Forget drops the index entries and statistics of an expired game.
	Forget(ctx context.Context, gameID string) error
	// RetryTimer arms the timer key again if no newer timer exists.
	RetryTimer(ctx context.Context, gameID string, ttl time.Duration) error
}

// Handler reacts to one expired key at a time.
type Handler struct {
	locker  *lock.Locker
	exec    Executor
	store   Store
	lockTTL time.Duration
	clock   func() time.Time
	// RetryAfter is the TTL of a timer re-armed because its game was busy.
	RetryAfter time.Duration
}

func NewHandler(locker *lock.Locker, exec Executor, st Store, lockTTL time.Duration) *Handler {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Handler{locker: locker, exec: exec, store: st, lockTTL: lockTTL, clock: time.Now, RetryAfter: 100 * time.Millisecond}
}

// TryHandleExpiredKey handles key if this process wins the expiration lock.
// It reports false, nil when the key is not ours to handle or another
// process is handling it. The lock is released once handling ends so the
// next expiry of the same key is handled too.
func (h *Handler) TryHandleExpiredKey(ctx context.Context, key string) (bool, error) {
	kind, gameID := store.ParseKey(key)
	if kind == store.KindUnknown {
		return false, nil
	}
	label := kindLabel(kind)

	lk, err := h.locker.TryAcquire(ctx, lock.ExpirationKey(key), h.lockTTL)
	if err != nil {
		return false, err
	}
	if lk == nil {
		metrics.ExpirationsTotal.WithLabelValues(label, "false").Inc()
		return false, nil
	}
	metrics.ExpirationsTotal.WithLabelValues(label, "true").Inc()

	err = h.handle(ctx, kind, gameID)
	if rerr := lk.Release(context.WithoutCancel(ctx)); rerr != nil {
		logger.Warn("expiration lock release failed", "key", key, "error", rerr)
	}
	if errors.Is(err, domain.ErrBusy) {
		logger.Debug("game busy, timer re-armed", "game_id", gameID, "retry_after", h.RetryAfter)
		if err := h.store.RetryTimer(ctx, gameID, h.RetryAfter); err != nil {
			return true, fmt.Errorf("expiration: retry timer %s: %w", gameID, err)
		}
		return true, nil
	}
	return true, err
}

func (h *Handler) handle(ctx context.Context, kind store.KeyKind, gameID string) error {
	switch kind {
	case store.KindTimer:
		a := action.New(action.TypeTimerExpired, gameID, action.SystemPlayerID, "", nil, h.clock())
		_, err := h.exec.Execute(ctx, a)
		if errors.Is(err, domain.ErrBusy) {
			return err
		}
		if err != nil && !domain.IsClientError(err) {
			return fmt.Errorf("expiration: timer %s: %w", gameID, err)
		}
	case store.KindGame:
		if err := h.store.Forget(ctx, gameID); err != nil {
			return fmt.Errorf("expiration: game %s: %w", gameID, err)
		}
	}
	return nil
}

func kindLabel(k store.KeyKind) string {
	switch k {
	case store.KindTimer:
		return "timer"
	case store.KindGame:
		return "game"
	default:
		return "other"
	}
}
