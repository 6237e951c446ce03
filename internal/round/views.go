package round

import "github.com/OpenQuester/OpenQuester-sub005/internal/domain"

func roundView(g *domain.Game) map[string]any {
	return map[string]any{
		"round":        g.GameState.CurrentRound,
		"turnPlayerId": g.GameState.CurrentTurnPlayerID,
	}
}

// questionView renders the question for the room. Only the showman gets the
// answer, and hidden questions keep their price from players.
func questionView(cq *domain.CurrentQuestion, q *domain.PackageQuestion, t *domain.GameStateTimer, answerer *int64, showman bool) map[string]any {
	v := map[string]any{"timer": t}
	if answerer != nil {
		v["answeringPlayer"] = *answerer
	}
	if cq != nil {
		v["questionId"] = cq.ID
		v["themeId"] = cq.ThemeID
		v["type"] = cq.Type
		if showman || cq.Type != domain.QuestionTypeHidden {
			v["price"] = cq.Price
		}
	}
	if q != nil {
		v["text"] = q.Text
		if showman {
			v["answer"] = q.Answer
		}
	}
	return v
}
