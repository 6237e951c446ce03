package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/lock"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/metrics"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

// Prefetcher reads everything an action needs in one round trip.
type Prefetcher interface {
	Prefetch(ctx context.Context, gameID, socketID string) (store.Snapshot, error)
}

// Registry resolves the handler of an action type.
type Registry interface {
	Get(t action.Type) (action.Handler, bool)
}

// Config tunes the executor.
type Config struct {
	Rules domain.Rules
	// LockTTL bounds how long a crashed process can hold a game.
	LockTTL time.Duration
	// LockWait is how long an action waits for the game lock.
	LockWait time.Duration
	Clock    func() time.Time
}

// Executor runs one action end to end.
type Executor struct {
	store     Prefetcher
	locker    *lock.Locker
	registry  Registry
	processor *Processor
	out       Broadcaster
	cfg       Config
}

func NewExecutor(st Prefetcher, locker *lock.Locker, reg Registry, proc *Processor, out Broadcaster, cfg Config) *Executor {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 3 * time.Second
	}
	return &Executor{store: st, locker: locker, registry: reg, processor: proc, out: out, cfg: cfg}
}

type errorPayload struct {
	ActionID string      `json:"actionId"`
	Type     action.Type `json:"type"`
	Code     string      `json:"code"`
	Message  string      `json:"message"`
}

// Execute runs a. On failure nothing is applied and the error is reported to
// the originating socket, if any.
func (e *Executor) Execute(ctx context.Context, a action.GameAction) (action.Result, error) {
	start := time.Now()
	res, pending, err := e.execute(ctx, a)
	if err == nil && len(pending) > 0 {
		e.processor.Complete(ctx, pending)
	}

	outcome := "ok"
	if err != nil {
		if domain.IsClientError(err) {
			outcome = "rejected"
			logger.Debug("action rejected", "type", a.Type, "game_id", a.GameID, "player_id", a.PlayerID, "error", err)
		} else {
			outcome = "error"
			logger.Error("action failed", "type", a.Type, "game_id", a.GameID, "player_id", a.PlayerID, "action_id", a.ID, "error", err)
		}
		e.report(ctx, a, err)
	}
	metrics.ActionsTotal.WithLabelValues(string(a.Type), outcome).Inc()
	metrics.ActionDuration.WithLabelValues(string(a.Type)).Observe(time.Since(start).Seconds())
	return res, err
}

// execute runs a under the game lock. Completions come back unapplied so
// they run after the lock is released.
func (e *Executor) execute(ctx context.Context, a action.GameAction) (action.Result, []action.CompleteGame, error) {
	h, ok := e.registry.Get(a.Type)
	if !ok {
		return action.Result{}, nil, domain.ErrUnknownAction
	}

	gameID := a.GameID
	if gameID == "" && a.SocketID != "" {
		snap, err := e.store.Prefetch(ctx, "", a.SocketID)
		if err != nil {
			return action.Result{}, nil, err
		}
		if snap.Session != nil {
			gameID = snap.Session.GameID
		}
	}

	if gameID != "" {
		lockCtx, cancel := context.WithTimeout(ctx, e.cfg.LockWait)
		lk, err := e.locker.Acquire(lockCtx, lock.GameKey(gameID), e.cfg.LockTTL)
		cancel()
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				metrics.LockWaits.Inc()
				return action.Result{}, nil, domain.ErrBusy
			}
			return action.Result{}, nil, err
		}
		defer func() {
			if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("game lock release failed", "game_id", gameID, "error", err)
			}
		}()
	}

	snap, err := e.store.Prefetch(ctx, gameID, a.SocketID)
	if err != nil {
		return action.Result{}, nil, err
	}
	ec := &action.ExecutionContext{
		Action:   a,
		Game:     snap.Game,
		Session:  snap.Session,
		TimerTTL: snap.TimerTTL,
		Now:      e.cfg.Clock(),
		Rules:    e.cfg.Rules,
	}
	if snap.Game != nil {
		if p, ok := snap.Game.Player(a.PlayerID); ok {
			ec.Player = p
		}
	}

	if err := checkRequirements(h.Requirements(), ec); err != nil {
		return action.Result{}, nil, err
	}

	res, muts, err := h.Handle(ec)
	if err != nil {
		return action.Result{}, nil, err
	}
	pending, err := e.processor.Commit(ctx, muts, snap.Game)
	if err != nil {
		return action.Result{}, nil, err
	}
	return res, pending, nil
}

// checkRequirements runs the lifecycle checks in a fixed order so the first
// violation a client sees is stable.
func checkRequirements(req action.Requirements, ec *action.ExecutionContext) error {
	g := ec.Game
	if g == nil {
		if req.Game || req.Member || req.Started || req.ShowmanOnly {
			return domain.ErrGameNotFound
		}
		return nil
	}
	if (req.Game || req.Member) && g.IsFinished() && !req.AllowFinished {
		return domain.ErrGameFinished
	}

	system := ec.Action.IsSystem()
	if req.Member && !system {
		if ec.Player == nil {
			return domain.ErrNotInGame
		}
		if ec.Action.SocketID != "" && (ec.Session == nil || ec.Session.GameID != g.ID) {
			return domain.ErrNotInGame
		}
	}
	if req.ShowmanOnly && !system {
		if ec.Player == nil || ec.Player.Role != domain.RoleShowman {
			return domain.ErrShowmanOnly
		}
	}
	if req.Started {
		if !g.IsStarted() {
			return domain.ErrGameNotStarted
		}
		if ec.Player != nil && ec.Player.Restricted {
			return domain.ErrPlayerRestricted
		}
	}
	if req.NotPaused && g.GameState.IsPaused {
		return domain.ErrGamePaused
	}
	return nil
}

func (e *Executor) report(ctx context.Context, a action.GameAction, err error) {
	if a.SocketID == "" || e.out == nil {
		return
	}
	payload := errorPayload{ActionID: a.ID, Type: a.Type, Code: "internal", Message: "internal server error"}
	if ce, ok := domain.AsClientError(err); ok {
		payload.Code = ce.Code
		payload.Message = err.Error()
	}
	env, sealErr := Seal(action.Broadcast{Event: action.EventError, Data: payload, SocketID: a.SocketID}, nil)
	if sealErr != nil {
		logger.Error("error report seal failed", "error", sealErr)
		return
	}
	if dErr := e.out.Deliver(ctx, env); dErr != nil {
		logger.Warn("error report failed", "socket_id", a.SocketID, "error", fmt.Errorf("deliver: %w", dErr))
	}
}
