package round

import (
	"slices"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Simple drives a regular round: pick a question, answer it, show the answer.
type Simple struct {
	rounds *Resolver
}

func (s *Simple) Type() domain.RoundType { return domain.RoundTypeSimple }

func (s *Simple) Enter(c *Context, pr *domain.PackageRound) error {
	g := c.Game
	g.GameState.QuestionState = domain.QuestionStateChoosing
	ensureTurnPlayer(g)
	stopTimer(c)
	c.Batch.Save()
	c.Batch.Emit(action.EventRoundStarted, roundView(g))
	return nil
}

// Pick plays the question chosen by the turn player or the showman.
func (s *Simple) Pick(c *Context, actorID, questionID int64) error {
	g := c.Game
	st := &g.GameState
	if st.QuestionState != domain.QuestionStateChoosing {
		return domain.ErrInvalidPhase
	}
	if !isShowman(g, actorID) && (st.CurrentTurnPlayerID == nil || *st.CurrentTurnPlayerID != actorID) {
		return domain.ErrNotYourTurn
	}

	slot, themeID, ok := findSlot(st.CurrentRound, questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	if slot.IsPlayed {
		return domain.ErrQuestionPlayed
	}
	pr, ok := g.CurrentPackageRound()
	if !ok {
		return domain.ErrInvalidPhase
	}
	q, _, ok := pr.Question(questionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}

	picker := actorID
	if isShowman(g, actorID) {
		ensureTurnPlayer(g)
		if st.CurrentTurnPlayerID == nil {
			return domain.ErrNotEnoughPlayers
		}
		picker = *st.CurrentTurnPlayerID
	}

	slot.IsPlayed = true
	resetQuestion(st)
	st.CurrentQuestion = &domain.CurrentQuestion{ID: q.ID, ThemeID: themeID, Price: q.Price, Type: q.Type}
	c.Batch.Save()

	switch q.Type {
	case domain.QuestionTypeStake:
		return s.openBidding(c, picker, q)
	case domain.QuestionTypeSecret:
		st.SecretQuestionData = &domain.SecretQuestionData{PickerID: picker, QuestionID: q.ID}
		st.QuestionState = domain.QuestionStateSecretTransfer
		t := startTimer(c, c.Rules.SecretTransferTime)
		c.Batch.Emit(action.EventSecretPicked, map[string]any{
			"questionId": q.ID,
			"themeId":    themeID,
			"price":      q.Price,
			"pickerId":   picker,
			"timer":      t,
		})
		return nil
	case domain.QuestionTypeNoRisk:
		s.startSingleAnswerer(c, picker)
		return nil
	default:
		st.QuestionState = domain.QuestionStateAnswering
		t := startTimer(c, c.Rules.QuestionTimeFor(q))
		c.Batch.EmitSplit(action.EventQuestionData,
			questionView(st.CurrentQuestion, q, &t, nil, false),
			questionView(st.CurrentQuestion, q, &t, nil, true))
		return nil
	}
}

// RequestAnswer lets a player buzz in on an open question.
func (s *Simple) RequestAnswer(c *Context, playerID int64) error {
	g := c.Game
	st := &g.GameState
	if st.QuestionState != domain.QuestionStateAnswering || st.CurrentQuestion == nil || !isBuzzIn(st.CurrentQuestion.Type) {
		return domain.ErrInvalidPhase
	}
	if st.AnsweringPlayer != nil {
		return domain.ErrSomeoneAnswering
	}
	p, ok := g.Player(playerID)
	if !ok || !p.IsActivePlayer() {
		return domain.ErrPlayersOnly
	}
	if hasAnswered(st, playerID) {
		return domain.ErrAlreadyAnswered
	}

	if st.Timer != nil {
		paused := st.Timer.Pause(c.Now)
		st.PausedQuestionTimer = &paused
	}
	id := playerID
	st.AnsweringPlayer = &id
	t := startTimer(c, c.Rules.AnswerTime)
	c.Batch.Save()
	c.Batch.Emit(action.EventAnswerRequested, map[string]any{"playerId": playerID, "timer": t})
	return nil
}

// SubmitAnswer relays the answering player's text to the room.
func (s *Simple) SubmitAnswer(c *Context, playerID int64, text string) error {
	st := &c.Game.GameState
	if st.QuestionState != domain.QuestionStateAnswering {
		return domain.ErrInvalidPhase
	}
	if st.AnsweringPlayer == nil || *st.AnsweringPlayer != playerID {
		return domain.ErrNotYourTurn
	}
	c.Batch.Emit(action.EventAnswerSubmitted, map[string]any{"playerId": playerID, "answer": text})
	return nil
}

// ResolveAnswer applies the showman's verdict to the answering player.
func (s *Simple) ResolveAnswer(c *Context, result domain.AnswerResultType) error {
	st := &c.Game.GameState
	if st.QuestionState != domain.QuestionStateAnswering {
		return domain.ErrInvalidPhase
	}
	if st.AnsweringPlayer == nil {
		return domain.ErrNoAnsweringPlayer
	}
	return s.resolve(c, result)
}

// SkipQuestion marks the player as not wanting to answer.
func (s *Simple) SkipQuestion(c *Context, playerID int64) error {
	g := c.Game
	st := &g.GameState
	if st.QuestionState != domain.QuestionStateAnswering || st.CurrentQuestion == nil || !isBuzzIn(st.CurrentQuestion.Type) {
		return domain.ErrInvalidPhase
	}
	if p, ok := g.Player(playerID); !ok || !p.IsActivePlayer() {
		return domain.ErrPlayersOnly
	}
	if st.AnsweringPlayer != nil && *st.AnsweringPlayer == playerID {
		return domain.ErrInvalidPhase
	}
	if hasAnswered(st, playerID) {
		return domain.ErrAlreadyAnswered
	}
	st.SkippedPlayers = append(st.SkippedPlayers, playerID)
	c.Batch.Save()
	c.Batch.Emit(action.EventQuestionSkipped, map[string]any{"playerId": playerID})
	if st.AnsweringPlayer == nil && len(eligibleAnswerers(g)) == 0 {
		s.showAnswer(c)
	}
	return nil
}

// ForceSkip is the showman's way out of any question phase.
func (s *Simple) ForceSkip(c *Context) error {
	switch c.Game.GameState.QuestionState {
	case domain.QuestionStateAnswering, domain.QuestionStateBidding, domain.QuestionStateSecretTransfer:
		s.showAnswer(c)
		return nil
	case domain.QuestionStateShowing:
		return s.continueRound(c)
	default:
		return domain.ErrInvalidPhase
	}
}

// TransferSecret hands a secret question to the chosen player.
func (s *Simple) TransferSecret(c *Context, actorID, targetID int64) error {
	g := c.Game
	st := &g.GameState
	sd := st.SecretQuestionData
	if st.QuestionState != domain.QuestionStateSecretTransfer || sd == nil {
		return domain.ErrInvalidPhase
	}
	if actorID != sd.PickerID && !isShowman(g, actorID) {
		return domain.ErrNotYourTurn
	}
	target, ok := g.Player(targetID)
	if !ok || !target.IsActivePlayer() {
		return domain.ErrPlayerNotFound
	}
	s.transfer(c, targetID)
	return nil
}

func (s *Simple) transfer(c *Context, targetID int64) {
	sd := c.Game.GameState.SecretQuestionData
	id := targetID
	sd.TransferredTo = &id
	c.Batch.Save()
	c.Batch.Emit(action.EventSecretTransferred, map[string]any{"fromPlayerId": sd.PickerID, "toPlayerId": targetID})
	s.startSingleAnswerer(c, targetID)
}

func (s *Simple) OnTimeout(c *Context) error {
	st := &c.Game.GameState
	switch st.QuestionState {
	case domain.QuestionStateAnswering:
		if st.AnsweringPlayer != nil {
			return s.resolve(c, domain.AnswerWrong)
		}
		s.showAnswer(c)
		return nil
	case domain.QuestionStateBidding:
		return s.bidTimeout(c)
	case domain.QuestionStateSecretTransfer:
		if st.SecretQuestionData == nil {
			s.showAnswer(c)
			return nil
		}
		s.transfer(c, st.SecretQuestionData.PickerID)
		return nil
	case domain.QuestionStateShowing:
		return s.continueRound(c)
	}
	return nil
}

// OnPlayerLeft expects the player to be already marked as gone.
func (s *Simple) OnPlayerLeft(c *Context, playerID int64) error {
	g := c.Game
	st := &g.GameState
	switch st.QuestionState {
	case domain.QuestionStateAnswering:
		if st.AnsweringPlayer != nil && *st.AnsweringPlayer == playerID {
			return s.resolve(c, domain.AnswerWrong)
		}
		if st.AnsweringPlayer == nil && st.CurrentQuestion != nil && isBuzzIn(st.CurrentQuestion.Type) && len(eligibleAnswerers(g)) == 0 {
			s.showAnswer(c)
		}
	case domain.QuestionStateBidding:
		return s.bidderLeft(c, playerID)
	case domain.QuestionStateSecretTransfer:
		if sd := st.SecretQuestionData; sd != nil && sd.PickerID == playerID {
			s.showAnswer(c)
		}
	case domain.QuestionStateChoosing:
		before := st.CurrentTurnPlayerID
		ensureTurnPlayer(g)
		if before != st.CurrentTurnPlayerID {
			c.Batch.Save()
			c.Batch.Emit(action.EventTurnPlayerChanged, map[string]any{"playerId": st.CurrentTurnPlayerID})
		}
	}
	return nil
}

func (s *Simple) resolve(c *Context, result domain.AnswerResultType) error {
	g := c.Game
	st := &g.GameState
	cq := st.CurrentQuestion
	if cq == nil || st.AnsweringPlayer == nil {
		return domain.ErrInvalidPhase
	}
	answererID := *st.AnsweringPlayer

	var delta int64
	switch {
	case result == domain.AnswerCorrect:
		delta = cq.Price
	case cq.Type == domain.QuestionTypeNoRisk:
		delta = 0
	default:
		delta = -cq.Price
	}

	var effective, score int64
	if p, ok := g.Player(answererID); ok {
		effective = applyDelta(c, p, delta, result)
		score = p.Score
	}
	st.AnsweredPlayers = append(st.AnsweredPlayers, domain.AnsweredPlayer{PlayerID: answererID, Result: result, ScoreDelta: effective})
	st.AnsweringPlayer = nil
	c.Batch.Save()
	c.Batch.Emit(action.EventAnswerResult, map[string]any{
		"playerId":   answererID,
		"result":     result,
		"scoreDelta": effective,
		"score":      score,
	})

	if result == domain.AnswerCorrect {
		id := answererID
		st.CurrentTurnPlayerID = &id
		s.showAnswer(c)
		return nil
	}
	if !isBuzzIn(cq.Type) || len(eligibleAnswerers(g)) == 0 || st.PausedQuestionTimer == nil {
		s.showAnswer(c)
		return nil
	}

	resumed := st.PausedQuestionTimer.Resume(c.Now)
	st.Timer = &resumed
	st.PausedQuestionTimer = nil
	c.Batch.ArmTimer(resumed.SafeTTL(c.Now))
	return nil
}

func (s *Simple) startSingleAnswerer(c *Context, playerID int64) {
	g := c.Game
	st := &g.GameState
	id := playerID
	st.AnsweringPlayer = &id
	st.QuestionState = domain.QuestionStateAnswering
	t := startTimer(c, c.Rules.AnswerTime)
	c.Batch.Save()

	var q *domain.PackageQuestion
	if pr, ok := g.CurrentPackageRound(); ok && st.CurrentQuestion != nil {
		q, _, _ = pr.Question(st.CurrentQuestion.ID)
	}
	c.Batch.EmitSplit(action.EventQuestionData,
		questionView(st.CurrentQuestion, q, &t, &id, false),
		questionView(st.CurrentQuestion, q, &t, &id, true))
}

func (s *Simple) showAnswer(c *Context) {
	g := c.Game
	st := &g.GameState
	st.QuestionState = domain.QuestionStateShowing
	st.AnsweringPlayer = nil
	st.PausedQuestionTimer = nil
	if sd := st.StakeQuestionData; sd != nil {
		sd.BiddingPhase = false
	}
	t := startTimer(c, c.Rules.ShowAnswerTime)
	c.Batch.Save()

	data := map[string]any{"answeredPlayers": st.AnsweredPlayers, "timer": t}
	if cq := st.CurrentQuestion; cq != nil {
		data["questionId"] = cq.ID
		if pr, ok := g.CurrentPackageRound(); ok {
			if q, _, ok := pr.Question(cq.ID); ok {
				data["answer"] = q.Answer
			}
		}
	}
	c.Batch.Emit(action.EventQuestionFinished, data)
}

func (s *Simple) continueRound(c *Context) error {
	g := c.Game
	st := &g.GameState
	resetQuestion(st)
	if allPlayed(st.CurrentRound) {
		return s.rounds.StartNextRound(c)
	}
	st.QuestionState = domain.QuestionStateChoosing
	ensureTurnPlayer(g)
	stopTimer(c)
	c.Batch.Save()
	c.Batch.Emit(action.EventChoosing, map[string]any{"turnPlayerId": st.CurrentTurnPlayerID})
	return nil
}

func isBuzzIn(t domain.QuestionType) bool {
	return t == domain.QuestionTypeSimple || t == domain.QuestionTypeHidden
}

func isShowman(g *domain.Game, playerID int64) bool {
	p, ok := g.Player(playerID)
	return ok && p.Role == domain.RoleShowman
}

func hasAnswered(st *domain.GameState, playerID int64) bool {
	if slices.Contains(st.SkippedPlayers, playerID) {
		return true
	}
	return slices.ContainsFunc(st.AnsweredPlayers, func(a domain.AnsweredPlayer) bool { return a.PlayerID == playerID })
}

// eligibleAnswerers lists active players who have neither answered nor skipped.
func eligibleAnswerers(g *domain.Game) []int64 {
	return slices.DeleteFunc(g.ActivePlayers(), func(id int64) bool {
		return hasAnswered(&g.GameState, id)
	})
}

func findSlot(rs *domain.RoundState, questionID int64) (*domain.QuestionSlot, int64, bool) {
	if rs == nil {
		return nil, 0, false
	}
	for ti := range rs.Themes {
		th := &rs.Themes[ti]
		for qi := range th.Questions {
			if th.Questions[qi].ID == questionID {
				return &th.Questions[qi], th.ID, true
			}
		}
	}
	return nil, 0, false
}

func allPlayed(rs *domain.RoundState) bool {
	if rs == nil {
		return true
	}
	for _, th := range rs.Themes {
		for _, q := range th.Questions {
			if !q.IsPlayed {
				return false
			}
		}
	}
	return true
}
