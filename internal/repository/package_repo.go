package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

type PackageRepository struct {
	db *pgxpool.Pool
}

func NewPackageRepository(db *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{db: db}
}

// GetTree loads a package with its rounds, themes and questions, each level
// ordered by its ord column.
func (r *PackageRepository) GetTree(ctx context.Context, id int64) (*domain.Package, error) {
	var p domain.Package
	err := r.db.QueryRow(ctx,
		`SELECT id, title, COALESCE(age_restriction, '')
		 FROM packages
		 WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.AgeRestriction)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("package %d: %w", id, err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.ord, r.name, r.type,
		        t.id, t.ord, t.name,
		        q.id, q.ord, q.price, q.type, q.text, q.answer, q.time_seconds
		 FROM package_rounds r
		 LEFT JOIN package_themes t ON t.round_id = r.id
		 LEFT JOIN package_questions q ON q.theme_id = t.id
		 WHERE r.package_id = $1
		 ORDER BY r.ord, t.ord, q.ord`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("package %d tree: %w", id, err)
	}
	defer rows.Close()

	var (
		lastRound int64 = -1
		lastTheme int64 = -1
	)
	for rows.Next() {
		var (
			roundID   int64
			roundType string
			round     domain.PackageRound
			themeID   *int64
			themeOrd  *int
			themeName *string
			qID       *int64
			qOrd      *int
			qPrice    *int64
			qType     *string
			qText     *string
			qAnswer   *string
			qTime     *int
		)
		if err := rows.Scan(
			&roundID, &round.Order, &round.Name, &roundType,
			&themeID, &themeOrd, &themeName,
			&qID, &qOrd, &qPrice, &qType, &qText, &qAnswer, &qTime,
		); err != nil {
			return nil, err
		}

		if roundID != lastRound {
			round.Type = domain.RoundType(roundType)
			p.Rounds = append(p.Rounds, round)
			lastRound = roundID
			lastTheme = -1
		}
		if themeID == nil {
			continue
		}
		cur := &p.Rounds[len(p.Rounds)-1]
		if *themeID != lastTheme {
			cur.Themes = append(cur.Themes, domain.PackageTheme{ID: *themeID, Order: *themeOrd, Name: *themeName})
			lastTheme = *themeID
		}
		if qID == nil {
			continue
		}
		theme := &cur.Themes[len(cur.Themes)-1]
		theme.Questions = append(theme.Questions, domain.PackageQuestion{
			ID:          *qID,
			Order:       *qOrd,
			Price:       *qPrice,
			Type:        domain.QuestionType(*qType),
			Text:        *qText,
			Answer:      *qAnswer,
			TimeSeconds: *qTime,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a whole package tree in one transaction and fills in the
// generated ids.
func (r *PackageRepository) Create(ctx context.Context, p *domain.Package, authorID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx,
		`INSERT INTO packages (title, age_restriction, author_id)
		 VALUES ($1, $2, NULLIF($3::bigint, 0))
		 RETURNING id`,
		p.Title, p.AgeRestriction, authorID,
	).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert package: %w", err)
	}

	for ri := range p.Rounds {
		round := &p.Rounds[ri]
		var roundID int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO package_rounds (package_id, ord, name, type)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			p.ID, round.Order, round.Name, string(round.Type),
		).Scan(&roundID); err != nil {
			return fmt.Errorf("insert round %d: %w", round.Order, err)
		}

		for ti := range round.Themes {
			theme := &round.Themes[ti]
			if err := tx.QueryRow(ctx,
				`INSERT INTO package_themes (round_id, ord, name)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				roundID, theme.Order, theme.Name,
			).Scan(&theme.ID); err != nil {
				return fmt.Errorf("insert theme %q: %w", theme.Name, err)
			}

			for qi := range theme.Questions {
				q := &theme.Questions[qi]
				if err := tx.QueryRow(ctx,
					`INSERT INTO package_questions (theme_id, ord, price, type, text, answer, time_seconds)
					 VALUES ($1, $2, $3, $4, $5, $6, $7)
					 RETURNING id`,
					theme.ID, q.Order, q.Price, string(q.Type), q.Text, q.Answer, q.TimeSeconds,
				).Scan(&q.ID); err != nil {
					return fmt.Errorf("insert question: %w", err)
				}
			}
		}
	}
	return tx.Commit(ctx)
}
