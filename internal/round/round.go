package round

import (
	"fmt"
	"slices"
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Context is what a round handler works on: a private copy of the game and
// the batch its side effects go into.
type Context struct {
	Game  *domain.Game
	Now   time.Time
	Rules domain.Rules
	Batch *action.Batch
}

// NewContext builds a round context around an action batch.
func NewContext(g *domain.Game, now time.Time, rules domain.Rules, b *action.Batch) *Context {
	return &Context{Game: g, Now: now, Rules: rules, Batch: b}
}

// Handler drives one round type.
type Handler interface {
	Type() domain.RoundType
	// Enter initializes the game state for a freshly started round.
	Enter(c *Context, round *domain.PackageRound) error
	// OnTimeout resolves the expired timer of the current phase.
	OnTimeout(c *Context) error
	// OnPlayerLeft repairs the phase when a participant drops out.
	OnPlayerLeft(c *Context, playerID int64) error
}

// Resolver picks the handler for a round type and owns the progression
// between rounds.
type Resolver struct {
	handlers map[domain.RoundType]Handler
}

// NewResolver wires the simple and final round handlers.
func NewResolver() *Resolver {
	r := &Resolver{handlers: make(map[domain.RoundType]Handler)}
	r.handlers[domain.RoundTypeSimple] = &Simple{rounds: r}
	r.handlers[domain.RoundTypeFinal] = &Final{rounds: r}
	return r
}

// For returns the handler for a round type.
func (r *Resolver) For(t domain.RoundType) (Handler, error) {
	h, ok := r.handlers[t]
	if !ok {
		return nil, fmt.Errorf("round: no handler for round type %q", t)
	}
	return h, nil
}

// Current returns the handler of the round being played.
func (r *Resolver) Current(g *domain.Game) (Handler, error) {
	if g.GameState.CurrentRound == nil {
		return nil, domain.ErrGameNotStarted
	}
	return r.For(g.GameState.CurrentRound.Type)
}

// Simple returns the simple round handler.
func (r *Resolver) Simple() *Simple {
	return r.handlers[domain.RoundTypeSimple].(*Simple)
}

// Final returns the final round handler.
func (r *Resolver) Final() *Final {
	return r.handlers[domain.RoundTypeFinal].(*Final)
}

// StartRound enters the round with the given package order.
func (r *Resolver) StartRound(c *Context, order int) error {
	pr, ok := c.Game.Package.Round(order)
	if !ok {
		return fmt.Errorf("round: package has no round %d", order)
	}
	h, err := r.For(pr.Type)
	if err != nil {
		return err
	}
	resetQuestion(&c.Game.GameState)
	c.Game.GameState.FinalRoundData = nil
	c.Game.GameState.CurrentRound = newRoundState(pr)
	return h.Enter(c, pr)
}

// StartNextRound moves to the next round, or finishes the game after the last.
func (r *Resolver) StartNextRound(c *Context) error {
	next, ok := c.Game.NextRoundOrder()
	if !ok {
		r.FinishGame(c)
		return nil
	}
	return r.StartRound(c, next)
}

// FinishGame marks the game finished and schedules the completion lifecycle.
func (r *Resolver) FinishGame(c *Context) {
	g := c.Game
	now := c.Now
	g.FinishedAt = &now
	resetQuestion(&g.GameState)
	g.GameState.Timer = nil
	c.Batch.Save().ClearTimer()
	c.Batch.Emit(action.EventGameFinished, map[string]any{
		"gameId":     g.ID,
		"finishedAt": now,
		"results":    standings(g),
	})
	c.Batch.Complete()
}

// OnPlayerLeft lets the current round react to a participant leaving a
// running game. The player must already be marked as gone.
func (r *Resolver) OnPlayerLeft(c *Context, playerID int64) error {
	g := c.Game
	if !g.IsStarted() || g.IsFinished() || g.GameState.CurrentRound == nil {
		return nil
	}
	h, err := r.Current(g)
	if err != nil {
		return err
	}
	return h.OnPlayerLeft(c, playerID)
}

// startTimer arms a fresh countdown for the current phase.
func startTimer(c *Context, d time.Duration) domain.GameStateTimer {
	t := domain.NewGameStateTimer(d).Start(c.Now)
	c.Game.GameState.Timer = &t
	c.Batch.ArmTimer(t.SafeTTL(c.Now))
	return t
}

// stopTimer drops the phase countdown.
func stopTimer(c *Context) {
	c.Game.GameState.Timer = nil
	c.Batch.ClearTimer()
}

func resetQuestion(s *domain.GameState) {
	s.CurrentQuestion = nil
	s.AnsweringPlayer = nil
	s.AnsweredPlayers = nil
	s.SkippedPlayers = nil
	s.StakeQuestionData = nil
	s.SecretQuestionData = nil
	s.PausedQuestionTimer = nil
}

func newRoundState(pr *domain.PackageRound) *domain.RoundState {
	rs := &domain.RoundState{Order: pr.Order, Name: pr.Name, Type: pr.Type}
	for _, t := range pr.Themes {
		ts := domain.ThemeState{ID: t.ID, Name: t.Name, Order: t.Order}
		for _, q := range t.Questions {
			ts.Questions = append(ts.Questions, domain.QuestionSlot{ID: q.ID, Order: q.Order, Price: q.Price})
		}
		rs.Themes = append(rs.Themes, ts)
	}
	return rs
}

// applyDelta shifts a player's score and records the running statistics.
func applyDelta(c *Context, p *domain.Player, delta int64, outcome domain.AnswerResultType) int64 {
	effective := p.ApplyScore(p.PlayerScore(c.Rules.ScoreBound).Add(delta))
	var correct, wrong int64
	switch outcome {
	case domain.AnswerCorrect:
		correct = 1
	case domain.AnswerWrong:
		wrong = 1
	}
	c.Batch.Stats(p.ID, correct, wrong, effective)
	return effective
}

func ensureTurnPlayer(g *domain.Game) {
	active := g.ActivePlayers()
	if cur := g.GameState.CurrentTurnPlayerID; cur != nil && slices.Contains(active, *cur) {
		return
	}
	if len(active) == 0 {
		g.GameState.CurrentTurnPlayerID = nil
		return
	}
	first := active[0]
	g.GameState.CurrentTurnPlayerID = &first
}

func standings(g *domain.Game) []map[string]any {
	out := make([]map[string]any, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Role != domain.RolePlayer {
			continue
		}
		out = append(out, map[string]any{"playerId": p.ID, "username": p.Username, "score": p.Score})
	}
	slices.SortStableFunc(out, func(a, b map[string]any) int {
		sa, sb := a["score"].(int64), b["score"].(int64)
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return 0
	})
	return out
}
