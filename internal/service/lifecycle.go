package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

// FinishedGames reads what a finished game left in the store.
type FinishedGames interface {
	LoadGame(ctx context.Context, gameID string) (*domain.Game, error)
	GameStats(ctx context.Context, gameID string) (map[int64]*store.PlayerStats, error)
}

// ResultSink keeps game results past the lifetime of the Redis record.
type ResultSink interface {
	SaveResults(ctx context.Context, finishedAt time.Time, results []domain.GameResult) error
}

// GameLifecycle runs the work that follows a finished game.
type GameLifecycle struct {
	games FinishedGames
	sink  ResultSink
}

func NewGameLifecycle(games FinishedGames, sink ResultSink) *GameLifecycle {
	return &GameLifecycle{games: games, sink: sink}
}

// Complete stores the final standings with the running statistics of every
// player.
func (l *GameLifecycle) Complete(ctx context.Context, gameID string) error {
	g, err := l.games.LoadGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("complete %s: %w", gameID, err)
	}
	if !g.IsFinished() {
		return fmt.Errorf("complete %s: %w", gameID, domain.ErrInvalidPhase)
	}
	stats, err := l.games.GameStats(ctx, gameID)
	if err != nil {
		return fmt.Errorf("complete %s: %w", gameID, err)
	}

	results := Results(g, stats)
	if l.sink != nil {
		if err := l.sink.SaveResults(ctx, *g.FinishedAt, results); err != nil {
			return fmt.Errorf("complete %s: %w", gameID, err)
		}
	}
	logger.Info("game completed", "game_id", gameID, "players", len(results))
	return nil
}

// Results ranks the players of g by score. Equal scores share a place.
func Results(g *domain.Game, stats map[int64]*store.PlayerStats) []domain.GameResult {
	out := make([]domain.GameResult, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Role != domain.RolePlayer {
			continue
		}
		r := domain.GameResult{GameID: g.ID, PlayerID: p.ID, Role: p.Role, FinalScore: p.Score}
		if s, ok := stats[p.ID]; ok {
			r.Correct, r.Wrong, r.ScoreDelta = s.Correct, s.Wrong, s.ScoreDelta
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	for i := range out {
		if i > 0 && out[i].FinalScore == out[i-1].FinalScore {
			out[i].Place = out[i-1].Place
		} else {
			out[i].Place = i + 1
		}
	}
	return out
}
