package expiration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/lock"
)

type recorder struct {
	mu      sync.Mutex
	actions []action.GameAction
	err     error
	// hold, when set, keeps Execute running until closed.
	hold chan struct{}
}

func (r *recorder) Execute(_ context.Context, a action.GameAction) (action.Result, error) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	err, hold := r.err, r.hold
	r.mu.Unlock()
	if hold != nil {
		<-hold
	}
	return action.Result{}, err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

type forgetter struct {
	games   []string
	retries []string
}

func (f *forgetter) Forget(_ context.Context, gameID string) error {
	f.games = append(f.games, gameID)
	return nil
}

func (f *forgetter) RetryTimer(_ context.Context, gameID string, _ time.Duration) error {
	f.retries = append(f.retries, gameID)
	return nil
}

func newHandler(t *testing.T) (*Handler, *recorder, *forgetter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	rec := &recorder{}
	fg := &forgetter{}
	return NewHandler(lock.NewLocker(rdb), rec, fg, 5*time.Second), rec, fg, mr
}

func TestTryHandleExpiredKey_OnlyOneWinner(t *testing.T) {
	h, rec, _, _ := newHandler(t)
	rec.hold = make(chan struct{})

	var handled, lost atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := h.TryHandleExpiredKey(context.Background(), "timer:g1")
			assert.NoError(t, err)
			if ok {
				handled.Add(1)
			} else {
				lost.Add(1)
			}
		}()
	}
	require.Eventually(t, func() bool { return lost.Load() == 7 }, time.Second, 5*time.Millisecond)
	close(rec.hold)
	wg.Wait()

	assert.Equal(t, int32(1), handled.Load())
	require.Len(t, rec.actions, 1)
	a := rec.actions[0]
	assert.Equal(t, action.TypeTimerExpired, a.Type)
	assert.Equal(t, "g1", a.GameID)
	assert.True(t, a.IsSystem())
	assert.Empty(t, a.SocketID)
}

func TestTryHandleExpiredKey_BackToBackExpiriesOfOneTimer(t *testing.T) {
	h, rec, _, mr := newHandler(t)
	ctx := context.Background()

	ok, err := h.TryHandleExpiredKey(ctx, "timer:g1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists(lock.ExpirationKey("timer:g1")))

	ok, err = h.TryHandleExpiredKey(ctx, "timer:g1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, rec.count())
}

func TestTryHandleExpiredKey_BusyGameRearmsTimer(t *testing.T) {
	h, rec, fg, mr := newHandler(t)
	rec.err = domain.ErrBusy

	ok, err := h.TryHandleExpiredKey(context.Background(), "timer:g1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"g1"}, fg.retries)
	assert.False(t, mr.Exists(lock.ExpirationKey("timer:g1")))
}

func TestTryHandleExpiredKey_GameKeyForgetsIndexes(t *testing.T) {
	h, rec, fg, mr := newHandler(t)

	ok, err := h.TryHandleExpiredKey(context.Background(), "game:g7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"g7"}, fg.games)
	assert.Empty(t, rec.actions)
	assert.False(t, mr.Exists(lock.ExpirationKey("game:g7")))
}

func TestTryHandleExpiredKey_IgnoresOtherKeys(t *testing.T) {
	h, rec, fg, mr := newHandler(t)

	ok, err := h.TryHandleExpiredKey(context.Background(), "socket:abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.actions)
	assert.Empty(t, fg.games)
	assert.False(t, mr.Exists(lock.ExpirationKey("socket:abc")))
}

func TestTryHandleExpiredKey_ClientErrorsAreNotFailures(t *testing.T) {
	h, rec, fg, _ := newHandler(t)
	rec.err = domain.ErrGameNotFound

	ok, err := h.TryHandleExpiredKey(context.Background(), "timer:gone")
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, fg.retries)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "__keyevent@3__:expired", Channel(3))
}

func TestListener_DispatchesNotifications(t *testing.T) {
	h, rec, _, mr := newHandler(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewListener(rdb, h, 0).Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(Channel(0))[Channel(0)] == 1
	}, time.Second, 5*time.Millisecond)
	mr.Publish(Channel(0), "timer:g9")
	mr.Publish(Channel(0), "stats:game:g9")

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.actions) == 1
	}, time.Second, 5*time.Millisecond)
	rec.mu.Lock()
	assert.Equal(t, "g9", rec.actions[0].GameID)
	rec.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}
