package handlers

import (
	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

func finalStep(rounds *round.Resolver, typ action.Type, req action.Requirements, step func(ec *action.ExecutionContext, c *round.Context, f *round.Final) error) *handler {
	return &handler{
		typ: typ,
		req: req,
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			f, err := finalRound(rounds, c.Game)
			if err != nil {
				return action.Result{}, err
			}
			if err := step(ec, c, f); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}

func newFinalThemeEliminate(rounds *round.Resolver) *handler {
	return finalStep(rounds, action.TypeFinalThemeEliminate, inGame, func(ec *action.ExecutionContext, c *round.Context, f *round.Final) error {
		in, err := decode[action.ThemeEliminatePayload](ec.Action)
		if err != nil {
			return err
		}
		return f.EliminateTheme(c, ec.Action.PlayerID, in.ThemeID)
	})
}

func newFinalBid(rounds *round.Resolver) *handler {
	return finalStep(rounds, action.TypeFinalBidSubmit, inGame, func(ec *action.ExecutionContext, c *round.Context, f *round.Final) error {
		in, err := decode[action.FinalBidPayload](ec.Action)
		if err != nil {
			return err
		}
		return f.SubmitBid(c, ec.Action.PlayerID, in.Amount)
	})
}

func newFinalAnswer(rounds *round.Resolver) *handler {
	return finalStep(rounds, action.TypeFinalAnswerSubmit, inGame, func(ec *action.ExecutionContext, c *round.Context, f *round.Final) error {
		in, err := decode[action.AnswerSubmitPayload](ec.Action)
		if err != nil {
			return err
		}
		return f.SubmitAnswer(c, ec.Action.PlayerID, in.Text)
	})
}

func newFinalReview(rounds *round.Resolver) *handler {
	return finalStep(rounds, action.TypeFinalAnswerReview, showmanInGame, func(ec *action.ExecutionContext, c *round.Context, f *round.Final) error {
		in, err := decode[action.FinalReviewPayload](ec.Action)
		if err != nil {
			return err
		}
		return f.Review(c, in.PlayerID, in.IsCorrect)
	})
}
