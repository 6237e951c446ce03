// Package jobs runs periodic background work.
package jobs

import (
	"context"
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
)

// Job is a unit of background work. It reports how many items it touched.
type Job func(ctx context.Context) (int, error)

// WithLogging wraps job so every run is logged with its duration and outcome.
func WithLogging(name string, job Job) Job {
	return func(ctx context.Context) (int, error) {
		start := time.Now()
		n, err := job(ctx)
		if err != nil {
			logger.Error("job failed", "job", name, "duration", time.Since(start), "error", err)
			return n, err
		}
		if n > 0 {
			logger.Info("job done", "job", name, "items", n, "duration", time.Since(start))
		} else {
			logger.Debug("job done", "job", name, "duration", time.Since(start))
		}
		return n, nil
	}
}

// Every runs job each interval until ctx ends. A failed run does not stop
// the loop.
func Every(ctx context.Context, interval time.Duration, job Job) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = job(ctx)
		}
	}
}

// IndexSweeper is the store side of the stale index sweep.
type IndexSweeper interface {
	SweepIndexes(ctx context.Context) (int, error)
}

// StaleIndexes removes index entries whose game record already expired.
func StaleIndexes(s IndexSweeper) Job {
	return WithLogging("stale_indexes", s.SweepIndexes)
}
