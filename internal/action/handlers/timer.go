package handlers

import (
	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

// newTimerExpired resolves an expired phase timer. Stale notifications are
// dropped: the game is gone or paused, a newer timer key already exists, or
// no countdown is running.
func newTimerExpired(rounds *round.Resolver) *handler {
	return &handler{
		typ: action.TypeTimerExpired,
		req: action.Requirements{},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			g := c.Game
			if g == nil || g.IsFinished() || !g.IsStarted() || g.GameState.IsPaused {
				return action.Result{}, nil
			}
			if ec.TimerActive() || g.GameState.Timer == nil || g.GameState.CurrentRound == nil {
				return action.Result{}, nil
			}
			h, err := rounds.Current(g)
			if err != nil {
				return action.Result{}, err
			}
			if err := h.OnTimeout(c); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}
