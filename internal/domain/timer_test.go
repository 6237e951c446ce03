package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStateTimer_StartIsIdempotent(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timer := NewGameStateTimer(60 * time.Second)

	first := timer.Start(t0)
	second := first.Start(t0.Add(5 * time.Second))

	require.NotNil(t, first.StartedAt)
	require.NotNil(t, second.StartedAt)
	assert.True(t, first.StartedAt.Equal(*second.StartedAt))
	assert.Equal(t, first.DurationMs, second.DurationMs)
	assert.Equal(t, first, second)
}

func TestGameStateTimer_ElapsedCappedAtDuration(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timer := NewGameStateTimer(10 * time.Second).Start(t0)

	assert.Equal(t, int64(4000), timer.ElapsedAt(t0.Add(4*time.Second)))
	assert.Equal(t, int64(10000), timer.ElapsedAt(t0.Add(time.Minute)))
}

func TestGameStateTimer_PausedElapsedIsFrozen(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timer := NewGameStateTimer(60 * time.Second).Start(t0)

	paused := timer.Pause(t0.Add(15 * time.Second))
	require.True(t, paused.IsPaused)

	assert.Equal(t, int64(15000), paused.ElapsedAt(t0.Add(15*time.Second)))
	assert.Equal(t, int64(15000), paused.ElapsedAt(t0.Add(25*time.Second)))
}

func TestGameStateTimer_ResumeContinuesFromFrozenValue(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timer := NewGameStateTimer(60 * time.Second).
		Start(t0).
		Pause(t0.Add(15 * time.Second)).
		Resume(t0.Add(40 * time.Second))

	assert.False(t, timer.IsPaused)
	assert.Equal(t, int64(20000), timer.ElapsedAt(t0.Add(45*time.Second)))
	assert.Equal(t, 40*time.Second, timer.RemainingAt(t0.Add(45*time.Second)))
}

func TestGameStateTimer_PauseOnStoppedTimerIsNoop(t *testing.T) {
	timer := NewGameStateTimer(time.Second)
	assert.Equal(t, timer, timer.Pause(time.Now()))
	assert.Equal(t, timer, timer.Resume(time.Now()))
}

func TestSafeTTLMs_NeverBelowOneMillisecond(t *testing.T) {
	cases := []struct {
		duration, elapsed, want int64
	}{
		{60000, 0, 60000},
		{60000, 59999, 1},
		{60000, 60000, 1},
		{60000, 75000, 1},
		{0, 0, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SafeTTLMs(tc.duration, tc.elapsed), "duration=%d elapsed=%d", tc.duration, tc.elapsed)
	}
}

func TestGameStateTimer_SafeTTLAtExpiry(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timer := NewGameStateTimer(2 * time.Second).Start(t0)
	assert.Equal(t, time.Millisecond, timer.SafeTTL(t0.Add(3*time.Second)))
	assert.Equal(t, 1500*time.Millisecond, timer.SafeTTL(t0.Add(500*time.Millisecond)))
}
