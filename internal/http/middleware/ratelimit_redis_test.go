package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticTokens map[string]int64

func (s staticTokens) Parse(token string) (int64, error) {
	id, ok := s[token]
	if !ok {
		return 0, errors.New("bad token")
	}
	return id, nil
}

func get(t *testing.T, r http.Handler, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_ByIPWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := gin.New()
	r.GET("/test", NewRateLimiter(rdb).ByIP(2, 2*time.Second), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(t, r, "/test", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(t, r, "/test", "").Code)

	mr.FastForward(3 * time.Second)
	assert.Equal(t, http.StatusOK, get(t, r, "/test", "").Code)
}

func TestRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	r := gin.New()
	r.GET("/test", NewRateLimiter(rdb).ByIP(1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := get(t, r, "/test", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "redis-error", w.Header().Get("X-RateLimit-Error"))
	}
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	r := gin.New()
	r.GET("/test", NewRateLimiter(nil).ByIP(1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, get(t, r, "/test", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, r, "/test", "").Code)
}

func TestRateLimiter_ByUser(t *testing.T) {
	tokens := staticTokens{"a": 1, "b": 2}
	r := gin.New()
	r.GET("/games", JWT(tokens), NewRateLimiter(nil).ByUser("create", 1, time.Minute), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": id})
	})

	w := get(t, r, "/games", "a")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, get(t, r, "/games", "a").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/games", "b").Code)
}

func TestJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(staticTokens{"good": 7}), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/me", "bad").Code)

	w := get(t, r, "/me", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())

	assert.Equal(t, http.StatusOK, get(t, r, "/me?token=good", "").Code)
}
