package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

type StatisticsRepository struct {
	db *pgxpool.Pool
}

func NewStatisticsRepository(db *pgxpool.Pool) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// SaveResults stores the outcome of a finished game and bumps the games
// played counter of every participant, in one transaction. Saving the same
// game twice keeps the first write.
func (r *StatisticsRepository) SaveResults(ctx context.Context, finishedAt time.Time, results []domain.GameResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, res := range results {
		batch.Queue(
			`INSERT INTO game_results (game_id, user_id, role, final_score, place, correct, wrong, score_delta, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (game_id, user_id) DO NOTHING`,
			res.GameID, res.PlayerID, string(res.Role), res.FinalScore, res.Place,
			res.Correct, res.Wrong, res.ScoreDelta, finishedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	inserted := make([]int64, 0, len(results))
	for _, res := range results {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("insert result %s/%d: %w", res.GameID, res.PlayerID, err)
		}
		if tag.RowsAffected() > 0 {
			inserted = append(inserted, res.PlayerID)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	if len(inserted) > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET games_played = games_played + 1 WHERE id = ANY($1)`,
			inserted,
		); err != nil {
			return fmt.Errorf("games played: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// History returns the latest results of a user.
func (r *StatisticsRepository) History(ctx context.Context, userID int64, limit int) ([]domain.GameResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT game_id, user_id, role, final_score, place, correct, wrong, score_delta
		 FROM game_results
		 WHERE user_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.GameResult
	for rows.Next() {
		var (
			gr   domain.GameResult
			role string
		)
		if err := rows.Scan(&gr.GameID, &gr.PlayerID, &role, &gr.FinalScore, &gr.Place, &gr.Correct, &gr.Wrong, &gr.ScoreDelta); err != nil {
			return nil, err
		}
		gr.Role = domain.PlayerRole(role)
		res = append(res, gr)
	}
	return res, rows.Err()
}
