package domain

import "time"

// MinTimerTTL is the smallest TTL ever written for a timer key. A zero or
// negative PX would make Redis reject the write or expire it instantly.
const MinTimerTTL = time.Millisecond

// GameStateTimer is a pause-aware countdown. It is a value type: every method
// returns a new timer and never changes the receiver.
type GameStateTimer struct {
	DurationMs int64      `json:"durationMs" validate:"gte=0"`
	ElapsedMs  int64      `json:"elapsedMs" validate:"gte=0"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	ResumedAt  *time.Time `json:"resumedAt,omitempty"`
	IsStarted  bool       `json:"isStarted"`
	IsPaused   bool       `json:"isPaused"`
}

// NewGameStateTimer returns a stopped timer for the given duration.
func NewGameStateTimer(duration time.Duration) GameStateTimer {
	return GameStateTimer{DurationMs: duration.Milliseconds()}
}

// Start starts the timer at now. Calling Start on an already started timer
// returns it unchanged.
func (t GameStateTimer) Start(now time.Time) GameStateTimer {
	if t.IsStarted {
		return t
	}
	at := now
	t.StartedAt = &at
	t.ResumedAt = nil
	t.IsStarted = true
	t.IsPaused = false
	return t
}

// Pause freezes elapsed time at now.
func (t GameStateTimer) Pause(now time.Time) GameStateTimer {
	if !t.IsStarted || t.IsPaused {
		return t
	}
	t.ElapsedMs = t.ElapsedAt(now)
	t.IsPaused = true
	return t
}

// Resume continues a paused timer from its frozen elapsed value.
func (t GameStateTimer) Resume(now time.Time) GameStateTimer {
	if !t.IsStarted || !t.IsPaused {
		return t
	}
	at := now
	t.ResumedAt = &at
	t.IsPaused = false
	return t
}

// ElapsedAt returns the elapsed milliseconds at now, capped at the duration.
func (t GameStateTimer) ElapsedAt(now time.Time) int64 {
	if !t.IsStarted || t.IsPaused {
		return t.ElapsedMs
	}
	ref := t.StartedAt
	if t.ResumedAt != nil {
		ref = t.ResumedAt
	}
	if ref == nil {
		return t.ElapsedMs
	}
	running := now.Sub(*ref).Milliseconds()
	if running < 0 {
		running = 0
	}
	return min(t.DurationMs, t.ElapsedMs+running)
}

// RemainingAt returns how much of the countdown is left at now.
func (t GameStateTimer) RemainingAt(now time.Time) time.Duration {
	return time.Duration(t.DurationMs-t.ElapsedAt(now)) * time.Millisecond
}

// SafeTTL is the TTL to persist for the timer key at now.
func (t GameStateTimer) SafeTTL(now time.Time) time.Duration {
	return time.Duration(SafeTTLMs(t.DurationMs, t.ElapsedAt(now))) * time.Millisecond
}

// SafeTTLMs returns max(duration-elapsed, 1ms).
func SafeTTLMs(durationMs, elapsedMs int64) int64 {
	return max(durationMs-elapsedMs, MinTimerTTL.Milliseconds())
}
