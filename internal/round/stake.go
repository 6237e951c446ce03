package round

import (
	"slices"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// openBidding starts the stake auction with the picker bidding first.
func (s *Simple) openBidding(c *Context, picker int64, q *domain.PackageQuestion) error {
	g := c.Game
	st := &g.GameState
	order := rotateTo(g.ActivePlayers(), picker)
	st.StakeQuestionData = &domain.StakeQuestionGameData{
		PickerID:      picker,
		QuestionID:    q.ID,
		Bids:          make(map[int64]*int64),
		PassedPlayers: []int64{},
		BiddingOrder:  order,
		BiddingPhase:  true,
	}
	st.QuestionState = domain.QuestionStateBidding
	c.Batch.Emit(action.EventStakePicked, map[string]any{
		"questionId":   q.ID,
		"themeId":      st.CurrentQuestion.ThemeID,
		"price":        q.Price,
		"pickerId":     picker,
		"biddingOrder": order,
	})
	return s.advanceBidding(c, false)
}

// SubmitBid applies a bid from the current bidder.
func (s *Simple) SubmitBid(c *Context, playerID int64, bidType domain.StakeBidType, amount int64) error {
	g := c.Game
	st := &g.GameState
	sd := st.StakeQuestionData
	if st.QuestionState != domain.QuestionStateBidding || sd == nil || !sd.BiddingPhase || st.CurrentQuestion == nil {
		return domain.ErrInvalidPhase
	}
	if currentBidder(sd) != playerID {
		return domain.ErrNotYourTurn
	}
	if bidType == domain.StakeBidPass && playerID == sd.PickerID && sd.HighestBid == nil {
		return domain.ErrPickerMustBid
	}
	p, ok := g.Player(playerID)
	if !ok {
		return domain.ErrPlayerNotFound
	}
	bid, err := domain.NewStakeBid(playerID, bidType, amount, p.PlayerScore(c.Rules.ScoreBound), sd.HighestBid, st.CurrentQuestion.Price)
	if err != nil {
		return err
	}
	return s.applyBid(c, bid)
}

func (s *Simple) applyBid(c *Context, bid domain.StakeBid) error {
	g := c.Game
	sd := g.GameState.StakeQuestionData
	if bid.IsPass() {
		sd.Bids[bid.PlayerID()] = nil
		sd.PassedPlayers = appendUnique(sd.PassedPlayers, bid.PlayerID())
	} else {
		amount := bid.Amount()
		sd.Bids[bid.PlayerID()] = &amount
		highest := amount
		sd.HighestBid = &highest
		// Nobody who cannot outbid the new highest stays in the auction.
		for _, id := range sd.BiddingOrder {
			if id == bid.PlayerID() || slices.Contains(sd.PassedPlayers, id) {
				continue
			}
			if p, ok := g.Player(id); !ok || p.Score <= amount {
				sd.PassedPlayers = append(sd.PassedPlayers, id)
			}
		}
	}
	c.Batch.Save()
	c.Batch.Emit(action.EventStakeBid, map[string]any{
		"playerId":      bid.PlayerID(),
		"bidType":       bid.Type(),
		"amount":        bid.Amount(),
		"highestBid":    sd.HighestBid,
		"passedPlayers": sd.PassedPlayers,
	})
	return s.advanceBidding(c, true)
}

// advanceBidding resolves the auction when a single bidder remains, otherwise
// hands the turn to the next bidder who has not passed.
func (s *Simple) advanceBidding(c *Context, moveOn bool) error {
	sd := c.Game.GameState.StakeQuestionData
	remaining := slices.DeleteFunc(slices.Clone(sd.BiddingOrder), func(id int64) bool {
		return slices.Contains(sd.PassedPlayers, id)
	})
	switch len(remaining) {
	case 0:
		s.showAnswer(c)
		return nil
	case 1:
		// the last bidder standing plays for the highest bid, even one made
		// by a player who has since left
		winner := remaining[0]
		amount := c.Game.GameState.CurrentQuestion.Price
		if sd.HighestBid != nil {
			amount = *sd.HighestBid
		}
		s.finishBidding(c, winner, amount)
		return nil
	}

	n := len(sd.BiddingOrder)
	start := sd.CurrentBidderIndex
	if moveOn {
		start++
	}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if !slices.Contains(sd.PassedPlayers, sd.BiddingOrder[idx]) {
			sd.CurrentBidderIndex = idx
			break
		}
	}
	t := startTimer(c, c.Rules.BiddingTime)
	c.Batch.Save()
	c.Batch.Emit(action.EventTurnPlayerChanged, map[string]any{"bidderId": currentBidder(sd), "timer": t})
	return nil
}

func (s *Simple) finishBidding(c *Context, winner, amount int64) {
	st := &c.Game.GameState
	sd := st.StakeQuestionData
	w := winner
	sd.WinnerPlayerID = &w
	sd.BiddingPhase = false
	st.CurrentQuestion.Price = amount
	c.Batch.Save()
	c.Batch.Emit(action.EventStakeWinner, map[string]any{"winnerId": winner, "bid": amount})
	s.startSingleAnswerer(c, winner)
}

// bidTimeout passes for the current bidder. A picker who never opened the
// auction is bid in at the question price instead.
func (s *Simple) bidTimeout(c *Context) error {
	g := c.Game
	st := &g.GameState
	sd := st.StakeQuestionData
	if sd == nil || !sd.BiddingPhase || st.CurrentQuestion == nil {
		s.showAnswer(c)
		return nil
	}
	bidder := currentBidder(sd)
	if bidder == sd.PickerID && sd.HighestBid == nil {
		p, ok := g.Player(bidder)
		if !ok {
			return s.applyBid(c, passBid(bidder))
		}
		bid, err := domain.NewStakeBid(bidder, domain.StakeBidNormal, st.CurrentQuestion.Price, p.PlayerScore(c.Rules.ScoreBound), nil, st.CurrentQuestion.Price)
		if err != nil {
			s.finishBidding(c, bidder, st.CurrentQuestion.Price)
			return nil
		}
		return s.applyBid(c, bid)
	}
	return s.applyBid(c, passBid(bidder))
}

func (s *Simple) bidderLeft(c *Context, playerID int64) error {
	sd := c.Game.GameState.StakeQuestionData
	if sd == nil || !sd.BiddingPhase || !slices.Contains(sd.BiddingOrder, playerID) || slices.Contains(sd.PassedPlayers, playerID) {
		return nil
	}
	if currentBidder(sd) == playerID {
		return s.applyBid(c, passBid(playerID))
	}
	sd.PassedPlayers = append(sd.PassedPlayers, playerID)
	c.Batch.Save()
	return s.advanceBidding(c, false)
}

func passBid(playerID int64) domain.StakeBid {
	bid, _ := domain.NewStakeBid(playerID, domain.StakeBidPass, 0, domain.PlayerScore{}, nil, 0)
	return bid
}

func currentBidder(sd *domain.StakeQuestionGameData) int64 {
	if sd.CurrentBidderIndex < 0 || sd.CurrentBidderIndex >= len(sd.BiddingOrder) {
		return 0
	}
	return sd.BiddingOrder[sd.CurrentBidderIndex]
}

// rotateTo returns ids starting at first, keeping the relative order.
func rotateTo(ids []int64, first int64) []int64 {
	i := slices.Index(ids, first)
	if i < 0 {
		return append([]int64{first}, ids...)
	}
	return append(slices.Clone(ids[i:]), ids[:i]...)
}

func appendUnique(ids []int64, id int64) []int64 {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
