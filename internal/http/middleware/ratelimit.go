package middleware

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int64
}

// localCounter is the fixed-window counter used when Redis is not configured.
type localCounter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func newLocalCounter() *localCounter {
	return &localCounter{windows: make(map[string]*window), now: time.Now}
}

func (l *localCounter) incr(key string, ttl time.Duration) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > ttl {
		l.windows[key] = &window{start: now, count: 1}
		l.prune(now, ttl)
		return 1
	}
	w.count++
	return w.count
}

// prune drops windows that closed long ago so the map stays bounded.
func (l *localCounter) prune(now time.Time, ttl time.Duration) {
	if len(l.windows) < 10_000 {
		return
	}
	for k, w := range l.windows {
		if now.Sub(w.start) > ttl {
			delete(l.windows, k)
		}
	}
}
