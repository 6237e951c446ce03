package handlers

import (
	"fmt"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

// Registry maps every action type to its handler.
type Registry struct {
	handlers map[action.Type]action.Handler
}

// NewRegistry builds the full handler set. It panics if an action type has no
// handler or two handlers claim the same type.
func NewRegistry(rounds *round.Resolver) *Registry {
	all := []action.Handler{
		newJoin(),
		newLeave(rounds),
		newDisconnect(rounds),
		newKick(rounds),
		newReady(true),
		newReady(false),
		newSlotChange(),
		newStart(rounds),
		newPause(),
		newUnpause(),
		newNextRound(rounds),
		newScoreChange(),
		newTurnPlayerChange(),
		newQuestionPick(rounds),
		newAnswerRequest(rounds),
		newAnswerSubmit(rounds),
		newAnswerResult(rounds),
		newQuestionSkip(rounds),
		newQuestionForceSkip(rounds),
		newStakeBid(rounds),
		newSecretTransfer(rounds),
		newFinalThemeEliminate(rounds),
		newFinalBid(rounds),
		newFinalAnswer(rounds),
		newFinalReview(rounds),
		newTimerExpired(rounds),
	}

	r := &Registry{handlers: make(map[action.Type]action.Handler, len(all))}
	for _, h := range all {
		if _, dup := r.handlers[h.Type()]; dup {
			panic(fmt.Sprintf("handlers: duplicate handler for %q", h.Type()))
		}
		r.handlers[h.Type()] = h
	}
	for _, t := range action.AllTypes {
		if _, ok := r.handlers[t]; !ok {
			panic(fmt.Sprintf("handlers: no handler for %q", t))
		}
	}
	return r
}

// Get returns the handler for t.
func (r *Registry) Get(t action.Type) (action.Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}
