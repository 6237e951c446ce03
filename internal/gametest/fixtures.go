// Package gametest builds game records and inspects mutation batches for tests.
package gametest

import (
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

const (
	GameID    = "game-1"
	ShowmanID = int64(10)
)

var Now = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

// Question ids of the fixture package.
const (
	QSimple   = int64(1001)
	QStake    = int64(1002)
	QNoRisk   = int64(2001)
	QSecret   = int64(2002)
	QHidden   = int64(2003)
	ThemeHist = int64(100)
	ThemeSci  = int64(200)
	FinalA    = int64(300)
	FinalB    = int64(400)
	FinalC    = int64(500)
	QFinalA   = int64(3001)
	QFinalB   = int64(4001)
	QFinalC   = int64(5001)
)

// Package returns a two-round package: a simple round with every question
// type and a final round with three themes.
func Package() domain.Package {
	return domain.Package{
		ID:    7,
		Title: "Pub quiz",
		Rounds: []domain.PackageRound{
			{
				Order: 0, Name: "Round 1", Type: domain.RoundTypeSimple,
				Themes: []domain.PackageTheme{
					{ID: ThemeHist, Order: 0, Name: "History", Questions: []domain.PackageQuestion{
						{ID: QSimple, Order: 0, Price: 10, Type: domain.QuestionTypeSimple, Text: "Year of Hastings?", Answer: "1066"},
						{ID: QStake, Order: 1, Price: 20, Type: domain.QuestionTypeStake, Text: "First emperor of Rome?", Answer: "Augustus"},
					}},
					{ID: ThemeSci, Order: 1, Name: "Science", Questions: []domain.PackageQuestion{
						{ID: QNoRisk, Order: 0, Price: 30, Type: domain.QuestionTypeNoRisk, Text: "H2O is?", Answer: "Water"},
						{ID: QSecret, Order: 1, Price: 40, Type: domain.QuestionTypeSecret, Text: "Speed of light?", Answer: "c"},
						{ID: QHidden, Order: 2, Price: 50, Type: domain.QuestionTypeHidden, Text: "Symbol of gold?", Answer: "Au"},
					}},
				},
			},
			{
				Order: 1, Name: "Final", Type: domain.RoundTypeFinal,
				Themes: []domain.PackageTheme{
					{ID: FinalA, Order: 0, Name: "Art", Questions: []domain.PackageQuestion{{ID: QFinalA, Type: domain.QuestionTypeSimple, Text: "Painter of Guernica?", Answer: "Picasso"}}},
					{ID: FinalB, Order: 1, Name: "Books", Questions: []domain.PackageQuestion{{ID: QFinalB, Type: domain.QuestionTypeSimple, Text: "Author of Dune?", Answer: "Herbert"}}},
					{ID: FinalC, Order: 2, Name: "Cities", Questions: []domain.PackageQuestion{{ID: QFinalC, Type: domain.QuestionTypeSimple, Text: "Capital of Peru?", Answer: "Lima"}}},
				},
			},
		},
	}
}

// Game returns a lobby with a showman and players 1, 2 and 3 holding 100
// points each.
func Game() *domain.Game {
	pkg := Package()
	g := &domain.Game{
		ID:             GameID,
		CreatedBy:      ShowmanID,
		Title:          "Friday quiz",
		CreatedAt:      Now.Add(-time.Hour),
		MaxPlayers:     4,
		RoundIndex:     []int{0, 1},
		RoundsCount:    len(pkg.Rounds),
		QuestionsCount: pkg.QuestionsCount(),
		Package:        pkg,
		Players: []domain.Player{
			{ID: ShowmanID, Username: "host", Role: domain.RoleShowman, GameStatus: domain.PlayerStatusInGame},
		},
	}
	for i, id := range []int64{1, 2, 3} {
		slot := i
		g.Players = append(g.Players, domain.Player{
			ID:         id,
			Username:   "player",
			Role:       domain.RolePlayer,
			Slot:       &slot,
			Score:      100,
			GameStatus: domain.PlayerStatusInGame,
		})
	}
	return g
}

// Broadcasts returns the broadcast mutations for event.
func Broadcasts(muts []action.Mutation, event action.Event) []action.Broadcast {
	var out []action.Broadcast
	for _, m := range muts {
		if b, ok := m.(action.Broadcast); ok && b.Event == event {
			out = append(out, b)
		}
	}
	return out
}

// Count returns how many mutations of type T are in muts.
func Count[T action.Mutation](muts []action.Mutation) int {
	n := 0
	for _, m := range muts {
		if _, ok := m.(T); ok {
			n++
		}
	}
	return n
}

// SavedGame returns the game of the last SaveGame mutation.
func SavedGame(muts []action.Mutation) *domain.Game {
	var g *domain.Game
	for _, m := range muts {
		if s, ok := m.(action.SaveGame); ok {
			g = s.Game
		}
	}
	return g
}
