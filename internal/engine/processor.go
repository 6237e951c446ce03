// Package engine runs game actions: it takes the per-game lock, prefetches
// state, dispatches to a handler and applies the mutations it declares.
package engine

import (
	"context"
	"fmt"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/metrics"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

// Persister runs a batch of writes atomically.
type Persister interface {
	Write(ctx context.Context, fn func(w *store.Writer) error) error
}

// Broadcaster delivers sealed events to connected sockets, wherever they are.
type Broadcaster interface {
	Deliver(ctx context.Context, env *Envelope) error
}

// Lifecycle runs the post-game work once a game has finished.
type Lifecycle interface {
	Complete(ctx context.Context, gameID string) error
}

// Processor applies mutations in three stages: persistence in one
// transaction, then broadcasts, then completion.
type Processor struct {
	store     Persister
	out       Broadcaster
	lifecycle Lifecycle
}

func NewProcessor(st Persister, out Broadcaster, lc Lifecycle) *Processor {
	return &Processor{store: st, out: out, lifecycle: lc}
}

// Apply runs muts. A persistence failure is returned and nothing else runs.
// Broadcast and completion failures are logged only.
func (p *Processor) Apply(ctx context.Context, muts []action.Mutation, fallback *domain.Game) error {
	pending, err := p.Commit(ctx, muts, fallback)
	if err != nil {
		return err
	}
	p.Complete(ctx, pending)
	return nil
}

// Commit runs the persistence and broadcast stages and hands back the
// completions for Complete. The executor calls it under the game lock and
// completes after the lock is released.
func (p *Processor) Commit(ctx context.Context, muts []action.Mutation, fallback *domain.Game) ([]action.CompleteGame, error) {
	var persistence, broadcasts []action.Mutation
	var completion []action.CompleteGame
	for _, m := range muts {
		switch action.ClassOf(m) {
		case action.ClassPersistence:
			persistence = append(persistence, m)
		case action.ClassBroadcast:
			broadcasts = append(broadcasts, m)
		case action.ClassCompletion:
			completion = append(completion, m.(action.CompleteGame))
		}
	}

	snapshot := fallback
	if len(persistence) > 0 {
		err := p.store.Write(ctx, func(w *store.Writer) error {
			for _, m := range persistence {
				if err := persist(w, m); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("engine: persist: %w", err)
		}
		for _, m := range persistence {
			if s, ok := m.(action.SaveGame); ok {
				snapshot = s.Game
			}
		}
	}

	for _, m := range broadcasts {
		b := m.(action.Broadcast)
		view := snapshot
		if b.Game != nil {
			view = b.Game
		}
		env, err := Seal(b, view)
		if err != nil {
			logger.Error("broadcast seal failed", "event", b.Event, "room", b.Room, "error", err)
			continue
		}
		if err := p.out.Deliver(ctx, env); err != nil {
			logger.Warn("broadcast failed", "event", b.Event, "room", b.Room, "error", err)
		}
	}

	return completion, nil
}

// Complete runs post-game work. Failures are logged and counted.
func (p *Processor) Complete(ctx context.Context, pending []action.CompleteGame) {
	if p.lifecycle == nil {
		return
	}
	for _, c := range pending {
		if err := p.lifecycle.Complete(ctx, c.GameID); err != nil {
			metrics.CompletionFailures.Inc()
			logger.Error("game completion failed", "game_id", c.GameID, "error", err)
		}
	}
}

func persist(w *store.Writer, m action.Mutation) error {
	switch m := m.(type) {
	case action.SaveGame:
		return w.SaveGame(m.Game)
	case action.SetTimer:
		w.SetTimer(m.GameID, m.TTL)
	case action.DeleteTimer:
		w.DeleteTimer(m.GameID)
	case action.UpdateSession:
		w.UpdateSession(m.SocketID, m.UserID, m.GameID)
	case action.UpdatePlayerStats:
		w.IncrStats(m.GameID, m.PlayerID, m.Correct, m.Wrong, m.ScoreDelta)
	default:
		panic(fmt.Sprintf("engine: %T is not a persistence mutation", m))
	}
	return nil
}
