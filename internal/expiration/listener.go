package expiration

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
)

// Listener feeds expired-key notifications of one Redis database to a
// Handler.
type Listener struct {
	rdb     *redis.Client
	handler *Handler
	db      int
	// Configure enables expired-key notifications on the server at startup.
	Configure bool
	// Workers bounds how many keys are handled at once.
	Workers int
}

func NewListener(rdb *redis.Client, h *Handler, db int) *Listener {
	return &Listener{rdb: rdb, handler: h, db: db, Workers: 32}
}

// Channel is the keyevent channel for expirations in db.
func Channel(db int) string {
	return fmt.Sprintf("__keyevent@%d__:expired", db)
}

// Run blocks until ctx ends or the subscription breaks.
func (l *Listener) Run(ctx context.Context) error {
	if l.Configure {
		if err := l.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
			logger.Warn("could not enable keyspace notifications", "error", err)
		}
	}

	sub := l.rdb.Subscribe(ctx, Channel(l.db))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("expiration: subscribe: %w", err)
	}
	logger.Info("expiration listener started", "channel", Channel(l.db))

	workers := l.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("expiration: subscription closed")
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			go func(key string) {
				defer func() { <-sem }()
				if _, err := l.handler.TryHandleExpiredKey(ctx, key); err != nil {
					logger.Error("expired key handling failed", "key", key, "error", err)
				}
			}(msg.Payload)
		}
	}
}
