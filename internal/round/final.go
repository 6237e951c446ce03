package round

import (
	"slices"
	"strings"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Final drives the closing round: theme elimination, bidding, answering and
// the showman's review.
type Final struct {
	rounds *Resolver
}

func (f *Final) Type() domain.RoundType { return domain.RoundTypeFinal }

// Enter seats every active player with a positive score. Without any such
// player the game ends right away.
func (f *Final) Enter(c *Context, pr *domain.PackageRound) error {
	g := c.Game
	participants := slices.DeleteFunc(g.ActivePlayers(), func(id int64) bool {
		p, _ := g.Player(id)
		return p.Score <= 0
	})
	if len(participants) == 0 {
		f.rounds.FinishGame(c)
		return nil
	}

	g.GameState.FinalRoundData = &domain.FinalRoundGameData{
		Phase:            domain.FinalPhaseThemeElimination,
		TurnOrder:        participants,
		EliminatedThemes: []int64{},
		Bids:             make(map[int64]int64),
		Answers:          []domain.FinalAnswer{},
	}
	c.Batch.Save()
	c.Batch.Emit(action.EventRoundStarted, roundView(g))

	if len(remainingThemes(g.GameState.CurrentRound)) <= 1 {
		f.startBidding(c)
		return nil
	}
	g.GameState.QuestionState = domain.QuestionStateThemeElimination
	t := startTimer(c, c.Rules.FinalEliminationTime)
	c.Batch.Emit(action.EventFinalPhaseChanged, map[string]any{
		"phase":        domain.FinalPhaseThemeElimination,
		"turnPlayerId": finalTurnPlayer(g.GameState.FinalRoundData),
		"timer":        t,
	})
	return nil
}

// EliminateTheme removes a theme on behalf of the turn player or the showman.
func (f *Final) EliminateTheme(c *Context, actorID, themeID int64) error {
	g := c.Game
	fd := g.GameState.FinalRoundData
	if fd == nil || fd.Phase != domain.FinalPhaseThemeElimination {
		return domain.ErrInvalidPhase
	}
	if !isShowman(g, actorID) && finalTurnPlayer(fd) != actorID {
		return domain.ErrNotYourTurn
	}
	return f.eliminate(c, themeID)
}

func (f *Final) eliminate(c *Context, themeID int64) error {
	g := c.Game
	fd := g.GameState.FinalRoundData
	remaining := remainingThemes(g.GameState.CurrentRound)
	idx := slices.IndexFunc(remaining, func(t *domain.ThemeState) bool { return t.ID == themeID })
	if idx < 0 {
		return domain.ErrThemeNotFound
	}
	if len(remaining) <= 1 {
		return domain.ErrCannotEliminateLast
	}

	remaining[idx].Eliminated = true
	fd.EliminatedThemes = append(fd.EliminatedThemes, themeID)
	c.Batch.Save()
	c.Batch.Emit(action.EventFinalThemeRemoved, map[string]any{"themeId": themeID, "playerId": finalTurnPlayer(fd)})

	if len(remaining) == 2 {
		f.startBidding(c)
		return nil
	}
	f.advanceTurn(g)
	t := startTimer(c, c.Rules.FinalEliminationTime)
	c.Batch.Emit(action.EventTurnPlayerChanged, map[string]any{"playerId": finalTurnPlayer(fd), "timer": t})
	return nil
}

// SubmitBid records a participant's final bid. Bids are simultaneous.
func (f *Final) SubmitBid(c *Context, playerID, amount int64) error {
	g := c.Game
	fd := g.GameState.FinalRoundData
	if fd == nil || fd.Phase != domain.FinalPhaseBidding {
		return domain.ErrInvalidPhase
	}
	if !slices.Contains(fd.TurnOrder, playerID) {
		return domain.ErrPlayersOnly
	}
	if _, ok := fd.Bids[playerID]; ok {
		return domain.ErrAlreadyBid
	}
	if amount < c.Rules.MinFinalBid {
		return domain.ErrBidTooLow
	}
	p, ok := g.Player(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if !p.PlayerScore(c.Rules.ScoreBound).CanAfford(amount) {
		return domain.ErrInsufficientScore
	}
	f.placeBid(c, playerID, amount)
	if f.allBid(fd) {
		f.startAnswering(c)
	}
	return nil
}

func (f *Final) placeBid(c *Context, playerID, amount int64) {
	c.Game.GameState.FinalRoundData.Bids[playerID] = amount
	c.Batch.Save()
	c.Batch.EmitSplit(action.EventFinalBidSubmitted,
		map[string]any{"playerId": playerID},
		map[string]any{"playerId": playerID, "amount": amount})
}

// SubmitAnswer stores a participant's answer. An empty answer loses the bid
// immediately.
func (f *Final) SubmitAnswer(c *Context, playerID int64, text string) error {
	fd := c.Game.GameState.FinalRoundData
	if fd == nil || fd.Phase != domain.FinalPhaseAnswering {
		return domain.ErrInvalidPhase
	}
	if !slices.Contains(fd.TurnOrder, playerID) {
		return domain.ErrPlayersOnly
	}
	if _, ok := fd.Answer(playerID); ok {
		return domain.ErrAlreadyAnswered
	}
	f.recordAnswer(c, playerID, strings.TrimSpace(text))
	if len(fd.Answers) == len(fd.TurnOrder) {
		f.startReviewing(c)
	}
	return nil
}

func (f *Final) recordAnswer(c *Context, playerID int64, text string) {
	fd := c.Game.GameState.FinalRoundData
	ans := domain.FinalAnswer{PlayerID: playerID, Text: text}
	if text == "" {
		ans.Outcome = domain.FinalOutcomeAutoLoss
		ans.Reviewed = true
		if p, ok := c.Game.Player(playerID); ok {
			ans.ScoreDelta = applyDelta(c, p, -fd.Bids[playerID], domain.AnswerWrong)
		}
	}
	fd.Answers = append(fd.Answers, ans)
	c.Batch.Save()
	c.Batch.Emit(action.EventFinalAnswerSubmit, map[string]any{"playerId": playerID})
}

// Review applies the showman's verdict on one final answer.
func (f *Final) Review(c *Context, playerID int64, correct bool) error {
	g := c.Game
	fd := g.GameState.FinalRoundData
	if fd == nil || fd.Phase != domain.FinalPhaseReviewing {
		return domain.ErrInvalidPhase
	}
	ans, ok := fd.Answer(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if ans.Reviewed {
		return domain.ErrAlreadyAnswered
	}

	bid := fd.Bids[playerID]
	ans.Reviewed = true
	if correct {
		ans.Outcome = domain.FinalOutcomeCorrect
	} else {
		ans.Outcome = domain.FinalOutcomeWrong
	}
	var score int64
	if p, ok := g.Player(playerID); ok {
		if correct {
			ans.ScoreDelta = applyDelta(c, p, bid, domain.AnswerCorrect)
		} else {
			ans.ScoreDelta = applyDelta(c, p, -bid, domain.AnswerWrong)
		}
		score = p.Score
	}
	c.Batch.Save()
	c.Batch.Emit(action.EventFinalAnswerReview, map[string]any{
		"playerId":   playerID,
		"outcome":    ans.Outcome,
		"scoreDelta": ans.ScoreDelta,
		"score":      score,
	})
	if fd.AllReviewed() {
		f.rounds.FinishGame(c)
	}
	return nil
}

func (f *Final) OnTimeout(c *Context) error {
	g := c.Game
	fd := g.GameState.FinalRoundData
	if fd == nil {
		return nil
	}
	switch fd.Phase {
	case domain.FinalPhaseThemeElimination:
		remaining := remainingThemes(g.GameState.CurrentRound)
		if len(remaining) <= 1 {
			f.startBidding(c)
			return nil
		}
		return f.eliminate(c, remaining[0].ID)
	case domain.FinalPhaseBidding:
		for _, id := range fd.TurnOrder {
			if _, ok := fd.Bids[id]; !ok {
				f.placeBid(c, id, f.minBid(c, id))
			}
		}
		f.startAnswering(c)
	case domain.FinalPhaseAnswering:
		for _, id := range fd.TurnOrder {
			if _, ok := fd.Answer(id); !ok {
				f.recordAnswer(c, id, "")
			}
		}
		f.startReviewing(c)
	}
	return nil
}

// OnPlayerLeft treats the leaver as timed out in the current phase.
func (f *Final) OnPlayerLeft(c *Context, playerID int64) error {
	g := c.Game
	fd := g.GameState.FinalRoundData
	if fd == nil || !slices.Contains(fd.TurnOrder, playerID) {
		return nil
	}
	switch fd.Phase {
	case domain.FinalPhaseThemeElimination:
		if finalTurnPlayer(fd) == playerID {
			f.advanceTurn(g)
			t := startTimer(c, c.Rules.FinalEliminationTime)
			c.Batch.Save()
			c.Batch.Emit(action.EventTurnPlayerChanged, map[string]any{"playerId": finalTurnPlayer(fd), "timer": t})
		}
	case domain.FinalPhaseBidding:
		if _, ok := fd.Bids[playerID]; !ok {
			f.placeBid(c, playerID, f.minBid(c, playerID))
			if f.allBid(fd) {
				f.startAnswering(c)
			}
		}
	case domain.FinalPhaseAnswering:
		if _, ok := fd.Answer(playerID); !ok {
			f.recordAnswer(c, playerID, "")
			if len(fd.Answers) == len(fd.TurnOrder) {
				f.startReviewing(c)
			}
		}
	}
	return nil
}

func (f *Final) startBidding(c *Context) {
	g := c.Game
	fd := g.GameState.FinalRoundData
	fd.Phase = domain.FinalPhaseBidding
	g.GameState.QuestionState = domain.QuestionStateBidding

	if remaining := remainingThemes(g.GameState.CurrentRound); len(remaining) > 0 {
		themeID := remaining[0].ID
		fd.ThemeID = &themeID
		if pr, ok := g.CurrentPackageRound(); ok {
			if th, ok := pr.Theme(themeID); ok && len(th.Questions) > 0 {
				qid := th.Questions[0].ID
				fd.QuestionID = &qid
			}
		}
	}
	t := startTimer(c, c.Rules.FinalBidTime)
	c.Batch.Save()
	c.Batch.Emit(action.EventFinalPhaseChanged, map[string]any{
		"phase":   domain.FinalPhaseBidding,
		"themeId": fd.ThemeID,
		"timer":   t,
	})
}

func (f *Final) startAnswering(c *Context) {
	g := c.Game
	fd := g.GameState.FinalRoundData
	fd.Phase = domain.FinalPhaseAnswering
	g.GameState.QuestionState = domain.QuestionStateAnswering
	t := startTimer(c, c.Rules.FinalAnswerTime)
	c.Batch.Save()

	q := f.question(g)
	data := map[string]any{"phase": domain.FinalPhaseAnswering, "themeId": fd.ThemeID, "timer": t}
	showman := map[string]any{"phase": domain.FinalPhaseAnswering, "themeId": fd.ThemeID, "timer": t}
	if q != nil {
		data["question"] = map[string]any{"id": q.ID, "text": q.Text}
		showman["question"] = map[string]any{"id": q.ID, "text": q.Text, "answer": q.Answer}
	}
	c.Batch.EmitSplit(action.EventFinalPhaseChanged, data, showman)
}

func (f *Final) startReviewing(c *Context) {
	g := c.Game
	fd := g.GameState.FinalRoundData
	fd.Phase = domain.FinalPhaseReviewing
	g.GameState.QuestionState = domain.QuestionStateReviewing
	stopTimer(c)
	c.Batch.Save()

	data := map[string]any{"phase": domain.FinalPhaseReviewing, "answers": fd.Answers}
	if q := f.question(g); q != nil {
		data["answer"] = q.Answer
	}
	c.Batch.Emit(action.EventFinalPhaseChanged, data)
	if fd.AllReviewed() {
		f.rounds.FinishGame(c)
	}
}

func (f *Final) question(g *domain.Game) *domain.PackageQuestion {
	fd := g.GameState.FinalRoundData
	if fd == nil || fd.QuestionID == nil {
		return nil
	}
	pr, ok := g.CurrentPackageRound()
	if !ok {
		return nil
	}
	q, _, ok := pr.Question(*fd.QuestionID)
	if !ok {
		return nil
	}
	return q
}

func (f *Final) minBid(c *Context, playerID int64) int64 {
	p, ok := c.Game.Player(playerID)
	if !ok {
		return c.Rules.MinFinalBid
	}
	return max(min(c.Rules.MinFinalBid, p.Score), 0)
}

func (f *Final) allBid(fd *domain.FinalRoundGameData) bool {
	for _, id := range fd.TurnOrder {
		if _, ok := fd.Bids[id]; !ok {
			return false
		}
	}
	return true
}

// advanceTurn moves to the next connected participant, wrapping around.
func (f *Final) advanceTurn(g *domain.Game) {
	fd := g.GameState.FinalRoundData
	n := len(fd.TurnOrder)
	for i := 1; i <= n; i++ {
		idx := (fd.TurnIndex + i) % n
		if p, ok := g.Player(fd.TurnOrder[idx]); ok && p.IsActivePlayer() {
			fd.TurnIndex = idx
			return
		}
	}
}

func finalTurnPlayer(fd *domain.FinalRoundGameData) int64 {
	if fd == nil || len(fd.TurnOrder) == 0 {
		return 0
	}
	return fd.TurnOrder[fd.TurnIndex%len(fd.TurnOrder)]
}

func remainingThemes(rs *domain.RoundState) []*domain.ThemeState {
	if rs == nil {
		return nil
	}
	out := make([]*domain.ThemeState, 0, len(rs.Themes))
	for i := range rs.Themes {
		if !rs.Themes[i].Eliminated {
			out = append(out, &rs.Themes[i])
		}
	}
	return out
}
