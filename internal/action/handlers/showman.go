package handlers

import (
	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

func newStart(rounds *round.Resolver) *handler {
	return &handler{
		typ: action.TypeStart,
		req: action.Requirements{Game: true, Member: true, ShowmanOnly: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			g := c.Game
			if g.IsStarted() {
				return action.Result{}, domain.ErrGameAlreadyStarted
			}
			if len(g.ActivePlayers()) == 0 {
				return action.Result{}, domain.ErrNotEnoughPlayers
			}
			first, ok := g.NextRoundOrder()
			if !ok {
				return action.Result{}, domain.ErrNoMoreRounds
			}
			now := c.Now
			g.StartedAt = &now
			g.GameState.ReadyPlayers = nil
			c.Batch.Save()
			c.Batch.Emit(action.EventGameStarted, map[string]any{"gameId": g.ID, "startedAt": now})
			if err := rounds.StartRound(c, first); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}

func newPause() *handler {
	return &handler{
		typ: action.TypePause,
		req: showmanInGame,
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			st := &c.Game.GameState
			st.IsPaused = true
			if st.Timer != nil {
				paused := st.Timer.Pause(c.Now)
				st.Timer = &paused
			}
			c.Batch.Save().ClearTimer()
			c.Batch.Emit(action.EventGamePaused, map[string]any{"timer": st.Timer})
			return action.Result{}, nil
		},
	}
}

func newUnpause() *handler {
	return &handler{
		typ: action.TypeUnpause,
		req: action.Requirements{Game: true, Member: true, Started: true, ShowmanOnly: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			st := &c.Game.GameState
			if !st.IsPaused {
				return action.Result{}, domain.ErrInvalidPhase
			}
			st.IsPaused = false
			c.Batch.Save()
			if st.Timer != nil {
				resumed := st.Timer.Resume(c.Now)
				st.Timer = &resumed
				c.Batch.ArmTimer(resumed.SafeTTL(c.Now))
			}
			c.Batch.Emit(action.EventGameUnpaused, map[string]any{"timer": st.Timer})
			return action.Result{}, nil
		},
	}
}

func newNextRound(rounds *round.Resolver) *handler {
	return &handler{
		typ: action.TypeNextRound,
		req: showmanInGame,
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			if err := rounds.StartNextRound(c); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}

func newScoreChange() *handler {
	return &handler{
		typ: action.TypePlayerScoreChange,
		req: action.Requirements{Game: true, Member: true, ShowmanOnly: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			in, err := decode[action.ScoreChangePayload](ec.Action)
			if err != nil {
				return action.Result{}, err
			}
			target, ok := c.Game.Player(in.PlayerID)
			if !ok || target.Role != domain.RolePlayer {
				return action.Result{}, domain.ErrPlayerNotFound
			}
			target.ApplyScore(domain.NewPlayerScore(in.Score, c.Rules.ScoreBound))
			c.Batch.Save()
			c.Batch.Emit(action.EventPlayerScoreChanged, map[string]any{"playerId": target.ID, "score": target.Score})
			return action.Result{}, nil
		},
	}
}

func newTurnPlayerChange() *handler {
	return &handler{
		typ: action.TypeTurnPlayerChange,
		req: action.Requirements{Game: true, Member: true, Started: true, ShowmanOnly: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			in, err := decode[action.TurnPlayerPayload](ec.Action)
			if err != nil {
				return action.Result{}, err
			}
			st := &c.Game.GameState
			if in.PlayerID != nil {
				target, ok := c.Game.Player(*in.PlayerID)
				if !ok || !target.IsActivePlayer() {
					return action.Result{}, domain.ErrPlayerNotFound
				}
			}
			st.CurrentTurnPlayerID = in.PlayerID
			c.Batch.Save()
			c.Batch.Emit(action.EventTurnPlayerChanged, map[string]any{"playerId": in.PlayerID})
			return action.Result{}, nil
		},
	}
}
