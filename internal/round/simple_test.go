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

func newCtx(g *domain.Game, now time.Time) *Context {
	return NewContext(g, now, domain.DefaultRules(), action.NewBatch(g))
}

func startedGame(t *testing.T) (*Resolver, *domain.Game) {
	t.Helper()
	g := gametest.Game()
	now := gametest.Now
	g.StartedAt = &now
	r := NewResolver()
	require.NoError(t, r.StartRound(newCtx(g, now), 0))
	require.Equal(t, domain.QuestionStateChoosing, g.GameState.QuestionState)
	require.Equal(t, int64(1), *g.GameState.CurrentTurnPlayerID)
	return r, g
}

func score(t *testing.T, g *domain.Game, id int64) int64 {
	t.Helper()
	p, ok := g.Player(id)
	require.True(t, ok)
	return p.Score
}

func TestSimple_PickRequiresTurnPlayer(t *testing.T) {
	r, g := startedGame(t)

	err := r.Simple().Pick(newCtx(g, gametest.Now), 2, gametest.QSimple)
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)

	c := newCtx(g, gametest.Now)
	require.NoError(t, r.Simple().Pick(c, 1, gametest.QSimple))
	assert.Equal(t, domain.QuestionStateAnswering, g.GameState.QuestionState)

	err = r.Simple().Pick(newCtx(g, gametest.Now), 1, gametest.QNoRisk)
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
}

func TestSimple_QuestionDataHidesAnswerFromPlayers(t *testing.T) {
	r, g := startedGame(t)
	c := newCtx(g, gametest.Now)
	require.NoError(t, r.Simple().Pick(c, gametest.ShowmanID, gametest.QSimple))

	data := gametest.Broadcasts(c.Batch.Mutations(), action.EventQuestionData)
	require.Len(t, data, 1)
	require.NotNil(t, data[0].Filter)

	player, _ := g.Player(2)
	showman, _ := g.Showman()
	forPlayer, ok := data[0].Filter(g, player)
	require.True(t, ok)
	forShowman, ok := data[0].Filter(g, showman)
	require.True(t, ok)

	assert.NotContains(t, forPlayer.(map[string]any), "answer")
	assert.Equal(t, "1066", forShowman.(map[string]any)["answer"])
}

func TestSimple_PickArmsTimerWithDeleteFirst(t *testing.T) {
	r, g := startedGame(t)
	c := newCtx(g, gametest.Now)
	require.NoError(t, r.Simple().Pick(c, 1, gametest.QSimple))

	muts := c.Batch.Mutations()
	_, isSave := muts[0].(action.SaveGame)
	assert.True(t, isSave)

	var sawDelete bool
	for _, m := range muts {
		switch m := m.(type) {
		case action.DeleteTimer:
			sawDelete = true
		case action.SetTimer:
			assert.True(t, sawDelete, "timer set before delete")
			assert.Equal(t, 60*time.Second, m.TTL)
		}
	}
}

func TestSimple_WrongAnswerResumesQuestionTimer(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QSimple))

	buzz := gametest.Now.Add(10 * time.Second)
	require.NoError(t, s.RequestAnswer(newCtx(g, buzz), 2))
	require.NotNil(t, g.GameState.PausedQuestionTimer)
	assert.Equal(t, int64(10_000), g.GameState.PausedQuestionTimer.ElapsedMs)
	assert.Equal(t, int64(2), *g.GameState.AnsweringPlayer)

	err := s.RequestAnswer(newCtx(g, buzz), 3)
	assert.ErrorIs(t, err, domain.ErrSomeoneAnswering)

	verdict := buzz.Add(5 * time.Second)
	c := newCtx(g, verdict)
	require.NoError(t, s.ResolveAnswer(c, domain.AnswerWrong))

	assert.Equal(t, int64(90), score(t, g, 2))
	assert.Equal(t, domain.QuestionStateAnswering, g.GameState.QuestionState)
	assert.Nil(t, g.GameState.AnsweringPlayer)
	assert.Nil(t, g.GameState.PausedQuestionTimer)
	require.NotNil(t, g.GameState.Timer)
	assert.Equal(t, 50*time.Second, g.GameState.Timer.RemainingAt(verdict))

	stats := 0
	for _, m := range c.Batch.Mutations() {
		if st, ok := m.(action.UpdatePlayerStats); ok {
			stats++
			assert.Equal(t, int64(1), st.Wrong)
			assert.Equal(t, int64(-10), st.ScoreDelta)
		}
	}
	assert.Equal(t, 1, stats)

	err = s.RequestAnswer(newCtx(g, verdict), 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyAnswered)
}

func TestSimple_CorrectAnswerShowsAnswerAndPassesTurn(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QSimple))
	require.NoError(t, s.RequestAnswer(newCtx(g, gametest.Now), 3))

	c := newCtx(g, gametest.Now)
	require.NoError(t, s.ResolveAnswer(c, domain.AnswerCorrect))

	assert.Equal(t, int64(110), score(t, g, 3))
	assert.Equal(t, int64(3), *g.GameState.CurrentTurnPlayerID)
	assert.Equal(t, domain.QuestionStateShowing, g.GameState.QuestionState)

	finished := gametest.Broadcasts(c.Batch.Mutations(), action.EventQuestionFinished)
	require.Len(t, finished, 1)
	assert.Equal(t, "1066", finished[0].Data.(map[string]any)["answer"])

	// show-answer timeout returns to choosing
	c = newCtx(g, gametest.Now.Add(5*time.Second))
	require.NoError(t, s.OnTimeout(c))
	assert.Equal(t, domain.QuestionStateChoosing, g.GameState.QuestionState)
	assert.Nil(t, g.GameState.CurrentQuestion)
	assert.Len(t, gametest.Broadcasts(c.Batch.Mutations(), action.EventChoosing), 1)
}

func TestSimple_EveryoneSkipsShowsAnswer(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QSimple))

	require.NoError(t, s.SkipQuestion(newCtx(g, gametest.Now), 1))
	require.NoError(t, s.SkipQuestion(newCtx(g, gametest.Now), 2))
	assert.Equal(t, domain.QuestionStateAnswering, g.GameState.QuestionState)

	assert.ErrorIs(t, s.SkipQuestion(newCtx(g, gametest.Now), 2), domain.ErrAlreadyAnswered)

	require.NoError(t, s.SkipQuestion(newCtx(g, gametest.Now), 3))
	assert.Equal(t, domain.QuestionStateShowing, g.GameState.QuestionState)
}

func TestSimple_NoRiskWrongAnswerCostsNothing(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QNoRisk))
	require.Equal(t, int64(1), *g.GameState.AnsweringPlayer)

	assert.ErrorIs(t, s.RequestAnswer(newCtx(g, gametest.Now), 2), domain.ErrInvalidPhase)

	require.NoError(t, s.OnTimeout(newCtx(g, gametest.Now.Add(20*time.Second))))
	assert.Equal(t, int64(100), score(t, g, 1))
	assert.Equal(t, domain.QuestionStateShowing, g.GameState.QuestionState)
}

func TestSimple_SecretTransferTimeoutGoesToPicker(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QSecret))
	require.Equal(t, domain.QuestionStateSecretTransfer, g.GameState.QuestionState)

	assert.ErrorIs(t, s.TransferSecret(newCtx(g, gametest.Now), 2, 3), domain.ErrNotYourTurn)

	require.NoError(t, s.OnTimeout(newCtx(g, gametest.Now.Add(30*time.Second))))
	assert.Equal(t, int64(1), *g.GameState.SecretQuestionData.TransferredTo)
	assert.Equal(t, int64(1), *g.GameState.AnsweringPlayer)
}

func TestSimple_SecretTransfer(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QSecret))

	c := newCtx(g, gametest.Now)
	require.NoError(t, s.TransferSecret(c, 1, 3))
	assert.Equal(t, int64(3), *g.GameState.AnsweringPlayer)
	assert.Len(t, gametest.Broadcasts(c.Batch.Mutations(), action.EventSecretTransferred), 1)

	require.NoError(t, s.ResolveAnswer(newCtx(g, gametest.Now), domain.AnswerCorrect))
	assert.Equal(t, int64(140), score(t, g, 3))
}

func TestSimple_AnsweringPlayerLeavingCountsAsWrong(t *testing.T) {
	r, g := startedGame(t)
	s := r.Simple()
	require.NoError(t, s.Pick(newCtx(g, gametest.Now), 1, gametest.QSimple))
	require.NoError(t, s.RequestAnswer(newCtx(g, gametest.Now), 2))

	p, _ := g.Player(2)
	p.GameStatus = domain.PlayerStatusDisconnected
	require.NoError(t, r.OnPlayerLeft(newCtx(g, gametest.Now), 2))

	assert.Equal(t, int64(90), score(t, g, 2))
	assert.Nil(t, g.GameState.AnsweringPlayer)
	assert.Equal(t, domain.QuestionStateAnswering, g.GameState.QuestionState)
}

func TestSimple_LastQuestionStartsFinalRound(t *testing.T) {
	r, g := startedGame(t)
	for ti := range g.GameState.CurrentRound.Themes {
		for qi := range g.GameState.CurrentRound.Themes[ti].Questions {
			g.GameState.CurrentRound.Themes[ti].Questions[qi].IsPlayed = true
		}
	}
	g.GameState.QuestionState = domain.QuestionStateShowing

	c := newCtx(g, gametest.Now)
	require.NoError(t, r.Simple().OnTimeout(c))

	require.Equal(t, domain.RoundTypeFinal, g.GameState.CurrentRound.Type)
	require.NotNil(t, g.GameState.FinalRoundData)
	assert.Equal(t, domain.FinalPhaseThemeElimination, g.GameState.FinalRoundData.Phase)
	assert.Equal(t, []int64{1, 2, 3}, g.GameState.FinalRoundData.TurnOrder)
	assert.Len(t, gametest.Broadcasts(c.Batch.Mutations(), action.EventRoundStarted), 1)
}
