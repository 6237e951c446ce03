package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/metrics"
)

// RateLimiter is a fixed-window limiter on Redis INCR/EXPIRE. With no Redis
// client it counts in process memory. Redis errors fail open.
type RateLimiter struct {
	rdb   redis.Cmdable
	local *localCounter
}

func NewRateLimiter(rdb redis.Cmdable) *RateLimiter {
	return &RateLimiter{rdb: rdb, local: newLocalCounter()}
}

// incr bumps key and reports the count in the current window.
func (l *RateLimiter) incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if l.rdb == nil {
		return l.local.incr(key, window), nil
	}
	val, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return val, nil
}

// ByIP limits requests per client address.
// key format: rl:<window_seconds>:<ip>
func (l *RateLimiter) ByIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		endpoint := c.FullPath()

		val, err := l.incr(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("ratelimit: redis error, allowing request", "endpoint", endpoint, "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val > int64(maxRequests) {
			metrics.RLBlocked.WithLabelValues(endpoint).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		metrics.RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
	}
}
