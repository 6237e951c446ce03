// Package handlers implements one action handler per action type.
package handlers

import (
	"fmt"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

// handleFunc works on a private clone of the game held by c. Mutations are
// taken from c.Batch only when it returns without error.
type handleFunc func(ec *action.ExecutionContext, c *round.Context) (action.Result, error)

type handler struct {
	typ action.Type
	req action.Requirements
	fn  handleFunc
}

func (h *handler) Type() action.Type { return h.typ }

func (h *handler) Requirements() action.Requirements { return h.req }

func (h *handler) Handle(ec *action.ExecutionContext) (action.Result, []action.Mutation, error) {
	var g *domain.Game
	if ec.Game != nil {
		g = ec.Game.Clone()
	}
	c := round.NewContext(g, ec.Now, ec.Rules, action.NewBatch(g))
	res, err := h.fn(ec, c)
	if err != nil {
		return action.Result{}, nil, err
	}
	return res, c.Batch.Mutations(), nil
}

var (
	// inGame is the default for actions that drive a running question.
	inGame = action.Requirements{Game: true, Member: true, Started: true, NotPaused: true}
	// showmanInGame is inGame restricted to the showman.
	showmanInGame = action.Requirements{Game: true, Member: true, Started: true, NotPaused: true, ShowmanOnly: true}
	// member only needs the caller to belong to the game.
	member = action.Requirements{Game: true, Member: true}
)

// actor returns the acting player inside the working copy.
func actor(ec *action.ExecutionContext, c *round.Context) (*domain.Player, error) {
	if c.Game == nil {
		return nil, domain.ErrGameNotFound
	}
	p, ok := c.Game.Player(ec.Action.PlayerID)
	if !ok {
		return nil, domain.ErrNotInGame
	}
	return p, nil
}

func decode[T any](a action.GameAction) (T, error) {
	v, err := action.DecodePayload[T](a)
	if err != nil {
		return v, fmt.Errorf("%w: %s", domain.ErrInvalidPayload, err.Error())
	}
	return v, nil
}

func simpleRound(rounds *round.Resolver, g *domain.Game) (*round.Simple, error) {
	if g.GameState.CurrentRound == nil || g.GameState.CurrentRound.Type != domain.RoundTypeSimple {
		return nil, domain.ErrInvalidPhase
	}
	return rounds.Simple(), nil
}

func finalRound(rounds *round.Resolver, g *domain.Game) (*round.Final, error) {
	if g.GameState.CurrentRound == nil || g.GameState.CurrentRound.Type != domain.RoundTypeFinal {
		return nil, domain.ErrInvalidPhase
	}
	return rounds.Final(), nil
}

// gameView is the game as sent to clients: no password, no package answers.
func gameView(g *domain.Game) map[string]any {
	return map[string]any{
		"id":             g.ID,
		"title":          g.Title,
		"createdBy":      g.CreatedBy,
		"createdAt":      g.CreatedAt,
		"isPrivate":      g.IsPrivate,
		"ageRestriction": g.AgeRestriction,
		"players":        g.Players,
		"maxPlayers":     g.MaxPlayers,
		"startedAt":      g.StartedAt,
		"finishedAt":     g.FinishedAt,
		"roundsCount":    g.RoundsCount,
		"questionsCount": g.QuestionsCount,
		"gameState":      g.GameState,
	}
}
