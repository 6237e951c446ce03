package round

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/gametest"
)

func finalGame(t *testing.T) (*Resolver, *domain.Game) {
	t.Helper()
	g := gametest.Game()
	now := gametest.Now
	g.StartedAt = &now
	r := NewResolver()
	require.NoError(t, r.StartRound(newCtx(g, now), 1))
	return r, g
}

func TestFinal_FullRound(t *testing.T) {
	r, g := finalGame(t)
	f := r.Final()
	fd := g.GameState.FinalRoundData
	require.Equal(t, domain.FinalPhaseThemeElimination, fd.Phase)
	require.Equal(t, domain.QuestionStateThemeElimination, g.GameState.QuestionState)

	assert.ErrorIs(t, f.EliminateTheme(newCtx(g, gametest.Now), 2, gametest.FinalA), domain.ErrNotYourTurn)
	require.NoError(t, f.EliminateTheme(newCtx(g, gametest.Now), 1, gametest.FinalA))
	assert.ErrorIs(t, f.EliminateTheme(newCtx(g, gametest.Now), 2, gametest.FinalA), domain.ErrThemeNotFound)
	require.NoError(t, f.EliminateTheme(newCtx(g, gametest.Now), 2, gametest.FinalB))

	require.Equal(t, domain.FinalPhaseBidding, fd.Phase)
	assert.Equal(t, gametest.FinalC, *fd.ThemeID)
	assert.Equal(t, gametest.QFinalC, *fd.QuestionID)

	assert.ErrorIs(t, f.SubmitBid(newCtx(g, gametest.Now), 2, 200), domain.ErrInsufficientScore)
	assert.ErrorIs(t, f.SubmitBid(newCtx(g, gametest.Now), 2, 0), domain.ErrBidTooLow)
	require.NoError(t, f.SubmitBid(newCtx(g, gametest.Now), 1, 50))
	assert.ErrorIs(t, f.SubmitBid(newCtx(g, gametest.Now), 1, 60), domain.ErrAlreadyBid)
	require.NoError(t, f.SubmitBid(newCtx(g, gametest.Now), 2, 100))
	require.NoError(t, f.SubmitBid(newCtx(g, gametest.Now), 3, 10))
	require.Equal(t, domain.FinalPhaseAnswering, fd.Phase)

	require.NoError(t, f.SubmitAnswer(newCtx(g, gametest.Now), 1, "Lima"))
	require.NoError(t, f.SubmitAnswer(newCtx(g, gametest.Now), 2, "   "))
	assert.Equal(t, int64(0), score(t, g, 2))
	require.NoError(t, f.SubmitAnswer(newCtx(g, gametest.Now), 3, "Cusco"))
	require.Equal(t, domain.FinalPhaseReviewing, fd.Phase)
	assert.Nil(t, g.GameState.Timer)

	ans, ok := fd.Answer(2)
	require.True(t, ok)
	assert.Equal(t, domain.FinalOutcomeAutoLoss, ans.Outcome)
	assert.True(t, ans.Reviewed)

	require.NoError(t, f.Review(newCtx(g, gametest.Now), 1, true))
	assert.ErrorIs(t, f.Review(newCtx(g, gametest.Now), 2, true), domain.ErrAlreadyAnswered)
	assert.False(t, g.IsFinished())

	c := newCtx(g, gametest.Now)
	require.NoError(t, f.Review(c, 3, false))

	assert.Equal(t, int64(150), score(t, g, 1))
	assert.Equal(t, int64(90), score(t, g, 3))
	assert.True(t, g.IsFinished())
	assert.Equal(t, 1, gametest.Count[action.CompleteGame](c.Batch.Mutations()))
	assert.Len(t, gametest.Broadcasts(c.Batch.Mutations(), action.EventGameFinished), 1)
}

func TestFinal_OnlyPositiveScoresTakePart(t *testing.T) {
	g := gametest.Game()
	p, _ := g.Player(2)
	p.Score = 0
	now := gametest.Now
	g.StartedAt = &now

	r := NewResolver()
	require.NoError(t, r.StartRound(newCtx(g, now), 1))
	assert.Equal(t, []int64{1, 3}, g.GameState.FinalRoundData.TurnOrder)
}

func TestFinal_NoParticipantsFinishesGame(t *testing.T) {
	g := gametest.Game()
	for i := range g.Players {
		g.Players[i].Score = -5
	}
	now := gametest.Now
	g.StartedAt = &now

	c := newCtx(g, now)
	require.NoError(t, NewResolver().StartRound(c, 1))
	assert.True(t, g.IsFinished())
	assert.Equal(t, 1, gametest.Count[action.CompleteGame](c.Batch.Mutations()))
}

func TestFinal_Timeouts(t *testing.T) {
	r, g := finalGame(t)
	f := r.Final()
	fd := g.GameState.FinalRoundData

	require.NoError(t, f.OnTimeout(newCtx(g, gametest.Now)))
	require.NoError(t, f.OnTimeout(newCtx(g, gametest.Now)))
	require.Equal(t, domain.FinalPhaseBidding, fd.Phase)
	assert.Equal(t, []int64{gametest.FinalA, gametest.FinalB}, fd.EliminatedThemes)

	require.NoError(t, f.SubmitBid(newCtx(g, gametest.Now), 1, 40))
	require.NoError(t, f.OnTimeout(newCtx(g, gametest.Now.Add(45*time.Second))))
	require.Equal(t, domain.FinalPhaseAnswering, fd.Phase)
	assert.Equal(t, map[int64]int64{1: 40, 2: 1, 3: 1}, fd.Bids)

	require.NoError(t, f.SubmitAnswer(newCtx(g, gametest.Now), 1, "Lima"))
	require.NoError(t, f.OnTimeout(newCtx(g, gametest.Now.Add(75*time.Second))))
	require.Equal(t, domain.FinalPhaseReviewing, fd.Phase)
	assert.Equal(t, int64(99), score(t, g, 2))
	assert.Equal(t, int64(99), score(t, g, 3))
	assert.False(t, fd.AllReviewed())
}

func TestFinal_AnswerViewOnlyShowsAnswerToShowman(t *testing.T) {
	r, g := finalGame(t)
	f := r.Final()
	require.NoError(t, f.OnTimeout(newCtx(g, gametest.Now)))
	require.NoError(t, f.OnTimeout(newCtx(g, gametest.Now)))

	c := newCtx(g, gametest.Now)
	require.NoError(t, f.OnTimeout(c))

	phase := gametest.Broadcasts(c.Batch.Mutations(), action.EventFinalPhaseChanged)
	require.Len(t, phase, 1)
	player, _ := g.Player(1)
	showman, _ := g.Showman()

	forPlayer, _ := phase[0].Filter(g, player)
	forShowman, _ := phase[0].Filter(g, showman)
	assert.NotContains(t, forPlayer.(map[string]any)["question"], "answer")
	assert.Equal(t, "Lima", forShowman.(map[string]any)["question"].(map[string]any)["answer"])
}
