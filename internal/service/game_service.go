package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

var (
	ErrInvalidMaxPlayers = errors.New("max players must be between 1 and 16")
	ErrEmptyPackage      = errors.New("package has no playable rounds")
)

// PackageSource loads question trees from the catalog.
type PackageSource interface {
	GetTree(ctx context.Context, id int64) (*domain.Package, error)
}

// GameStore is the part of the game store game creation needs.
type GameStore interface {
	SaveGame(ctx context.Context, g *domain.Game) error
	LoadGame(ctx context.Context, gameID string) (*domain.Game, error)
	ListGames(ctx context.Context, index string, offset, limit int64) ([]*domain.Game, error)
}

type CreateGameInput struct {
	Title          string `json:"title" binding:"required,max=200"`
	PackageID      int64  `json:"packageId" binding:"required"`
	IsPrivate      bool   `json:"isPrivate"`
	Password       string `json:"password" binding:"max=64"`
	AgeRestriction string `json:"ageRestriction"`
	MaxPlayers     int    `json:"maxPlayers"`
}

// GameSummary is what the lobby list shows about a game.
type GameSummary struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	CreatedBy      int64      `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	IsPrivate      bool       `json:"isPrivate"`
	HasPassword    bool       `json:"hasPassword"`
	AgeRestriction string     `json:"ageRestriction"`
	Players        int        `json:"players"`
	MaxPlayers     int        `json:"maxPlayers"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	PackageTitle   string     `json:"packageTitle"`
	RoundsCount    int        `json:"roundsCount"`
	QuestionsCount int        `json:"questionsCount"`
}

// GameService creates games and lists them for the lobby.
type GameService struct {
	packages PackageSource
	games    GameStore
	now      func() time.Time
}

func NewGameService(packages PackageSource, games GameStore) *GameService {
	return &GameService{packages: packages, games: games, now: time.Now}
}

const defaultMaxPlayers = 8

// Create copies the package tree into a fresh game record. The creator joins
// over the socket like everyone else.
func (s *GameService) Create(ctx context.Context, userID int64, in CreateGameInput) (*domain.Game, error) {
	maxPlayers := in.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = defaultMaxPlayers
	}
	if maxPlayers < 1 || maxPlayers > 16 {
		return nil, ErrInvalidMaxPlayers
	}

	pkg, err := s.packages.GetTree(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	pkg.Rounds = slices.DeleteFunc(pkg.Rounds, func(r domain.PackageRound) bool { return len(r.Themes) == 0 })
	order := make([]int, 0, len(pkg.Rounds))
	for _, r := range pkg.Rounds {
		order = append(order, r.Order)
	}
	if len(order) == 0 {
		return nil, ErrEmptyPackage
	}
	slices.Sort(order)

	age := in.AgeRestriction
	if age == "" {
		age = pkg.AgeRestriction
	}
	g := &domain.Game{
		ID:             uuid.NewString(),
		CreatedBy:      userID,
		Title:          in.Title,
		CreatedAt:      s.now().UTC(),
		IsPrivate:      in.IsPrivate || in.Password != "",
		Password:       in.Password,
		AgeRestriction: age,
		Players:        []domain.Player{},
		MaxPlayers:     maxPlayers,
		RoundIndex:     order,
		RoundsCount:    len(order),
		QuestionsCount: pkg.QuestionsCount(),
		Package:        *pkg,
	}
	if err := s.games.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List pages through one of the lobby indexes.
func (s *GameService) List(ctx context.Context, scope string, offset, limit int64) ([]GameSummary, error) {
	index := store.IndexPublic
	switch scope {
	case "active":
		index = store.IndexActive
	case "all":
		index = store.IndexCreated
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	games, err := s.games.ListGames(ctx, index, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, Summarize(g))
	}
	return out, nil
}

// Get returns the lobby view of one game.
func (s *GameService) Get(ctx context.Context, gameID string) (GameSummary, error) {
	g, err := s.games.LoadGame(ctx, gameID)
	if err != nil {
		return GameSummary{}, err
	}
	return Summarize(g), nil
}

func Summarize(g *domain.Game) GameSummary {
	return GameSummary{
		ID:             g.ID,
		Title:          g.Title,
		CreatedBy:      g.CreatedBy,
		CreatedAt:      g.CreatedAt,
		IsPrivate:      g.IsPrivate,
		HasPassword:    g.Password != "",
		AgeRestriction: g.AgeRestriction,
		Players:        g.PlayersCount(),
		MaxPlayers:     g.MaxPlayers,
		StartedAt:      g.StartedAt,
		FinishedAt:     g.FinishedAt,
		PackageTitle:   g.Package.Title,
		RoundsCount:    g.RoundsCount,
		QuestionsCount: g.QuestionsCount,
	}
}
