package handlers

import (
	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

// simpleStep builds a handler that runs inside a simple round.
func simpleStep(rounds *round.Resolver, typ action.Type, req action.Requirements, step func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error) *handler {
	return &handler{
		typ: typ,
		req: req,
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			s, err := simpleRound(rounds, c.Game)
			if err != nil {
				return action.Result{}, err
			}
			if err := step(ec, c, s); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}

func newQuestionPick(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeQuestionPick, inGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		in, err := decode[action.QuestionPickPayload](ec.Action)
		if err != nil {
			return err
		}
		return s.Pick(c, ec.Action.PlayerID, in.QuestionID)
	})
}

func newAnswerRequest(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeAnswerRequest, inGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		return s.RequestAnswer(c, ec.Action.PlayerID)
	})
}

func newAnswerSubmit(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeAnswerSubmit, inGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		in, err := decode[action.AnswerSubmitPayload](ec.Action)
		if err != nil {
			return err
		}
		return s.SubmitAnswer(c, ec.Action.PlayerID, in.Text)
	})
}

func newAnswerResult(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeAnswerResult, showmanInGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		in, err := decode[action.AnswerResultPayload](ec.Action)
		if err != nil {
			return err
		}
		if in.Result != domain.AnswerCorrect && in.Result != domain.AnswerWrong {
			return domain.ErrInvalidPayload
		}
		return s.ResolveAnswer(c, in.Result)
	})
}

func newQuestionSkip(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeQuestionSkip, inGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		return s.SkipQuestion(c, ec.Action.PlayerID)
	})
}

func newQuestionForceSkip(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeQuestionForceSkip, showmanInGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		return s.ForceSkip(c)
	})
}

func newStakeBid(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeStakeBidSubmit, inGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		in, err := decode[action.StakeBidPayload](ec.Action)
		if err != nil {
			return err
		}
		return s.SubmitBid(c, ec.Action.PlayerID, in.BidType, in.Amount)
	})
}

func newSecretTransfer(rounds *round.Resolver) *handler {
	return simpleStep(rounds, action.TypeSecretQuestionTransfer, inGame, func(ec *action.ExecutionContext, c *round.Context, s *round.Simple) error {
		in, err := decode[action.SecretTransferPayload](ec.Action)
		if err != nil {
			return err
		}
		return s.TransferSecret(c, ec.Action.PlayerID, in.TargetPlayerID)
	})
}
