package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// ErrCorruptGame is returned when a stored game record fails to decode or
// validate. The whole read is rejected.
var ErrCorruptGame = errors.New("store: corrupt game record")

// hash field names of game:<id>
const (
	fieldID             = "id"
	fieldCreatedBy      = "createdBy"
	fieldTitle          = "title"
	fieldCreatedAt      = "createdAt"
	fieldIsPrivate      = "isPrivate"
	fieldPassword       = "password"
	fieldAgeRestriction = "ageRestriction"
	fieldPlayers        = "players"
	fieldMaxPlayers     = "maxPlayers"
	fieldStartedAt      = "startedAt"
	fieldFinishedAt     = "finishedAt"
	fieldRoundIndex     = "roundIndex"
	fieldRoundsCount    = "roundsCount"
	fieldQuestionsCount = "questionsCount"
	fieldPackage        = "package"
	fieldGameState      = "gameState"
)

var requiredFields = []string{
	fieldID, fieldCreatedBy, fieldTitle, fieldCreatedAt, fieldIsPrivate,
	fieldPlayers, fieldMaxPlayers, fieldRoundIndex, fieldRoundsCount,
	fieldQuestionsCount, fieldPackage, fieldGameState,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// EncodeGame flattens a game into hash fields. Nested values are JSON.
func EncodeGame(g *domain.Game) (map[string]any, error) {
	if err := validate.Struct(g); err != nil {
		return nil, fmt.Errorf("store: encode game %s: %w", g.ID, err)
	}
	players, err := json.Marshal(g.Players)
	if err != nil {
		return nil, fmt.Errorf("store: encode players: %w", err)
	}
	roundIndex, err := json.Marshal(g.RoundIndex)
	if err != nil {
		return nil, fmt.Errorf("store: encode round index: %w", err)
	}
	pkg, err := json.Marshal(g.Package)
	if err != nil {
		return nil, fmt.Errorf("store: encode package: %w", err)
	}
	state, err := json.Marshal(g.GameState)
	if err != nil {
		return nil, fmt.Errorf("store: encode game state: %w", err)
	}

	return map[string]any{
		fieldID:             g.ID,
		fieldCreatedBy:      strconv.FormatInt(g.CreatedBy, 10),
		fieldTitle:          g.Title,
		fieldCreatedAt:      formatTime(&g.CreatedAt),
		fieldIsPrivate:      strconv.FormatBool(g.IsPrivate),
		fieldPassword:       g.Password,
		fieldAgeRestriction: g.AgeRestriction,
		fieldPlayers:        string(players),
		fieldMaxPlayers:     strconv.Itoa(g.MaxPlayers),
		fieldStartedAt:      formatTime(g.StartedAt),
		fieldFinishedAt:     formatTime(g.FinishedAt),
		fieldRoundIndex:     string(roundIndex),
		fieldRoundsCount:    strconv.Itoa(g.RoundsCount),
		fieldQuestionsCount: strconv.Itoa(g.QuestionsCount),
		fieldPackage:        string(pkg),
		fieldGameState:      string(state),
	}, nil
}

// DecodeGame parses and validates the fields of game:<id>. Unknown fields are
// ignored. A missing or malformed required field rejects the record.
func DecodeGame(fields map[string]string) (*domain.Game, error) {
	for _, f := range requiredFields {
		if _, ok := fields[f]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrCorruptGame, f)
		}
	}

	d := decoder{fields: fields}
	g := &domain.Game{
		ID:             fields[fieldID],
		Title:          fields[fieldTitle],
		Password:       fields[fieldPassword],
		AgeRestriction: fields[fieldAgeRestriction],
		CreatedBy:      d.int64(fieldCreatedBy),
		IsPrivate:      d.bool(fieldIsPrivate),
		MaxPlayers:     d.int(fieldMaxPlayers),
		RoundsCount:    d.int(fieldRoundsCount),
		QuestionsCount: d.int(fieldQuestionsCount),
		StartedAt:      d.time(fieldStartedAt),
		FinishedAt:     d.time(fieldFinishedAt),
	}
	if created := d.time(fieldCreatedAt); created != nil {
		g.CreatedAt = *created
	} else if d.err == nil {
		d.err = fmt.Errorf("field %q: empty", fieldCreatedAt)
	}
	d.json(fieldPlayers, &g.Players)
	d.json(fieldRoundIndex, &g.RoundIndex)
	d.json(fieldPackage, &g.Package)
	d.json(fieldGameState, &g.GameState)
	if d.err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptGame, d.err.Error())
	}

	if err := validate.Struct(g); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptGame, err.Error())
	}
	return g, nil
}

// decoder keeps the first parse error so fields can be read in a row.
type decoder struct {
	fields map[string]string
	err    error
}

func (d *decoder) fail(field string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("field %q: %w", field, err)
	}
}

func (d *decoder) int64(field string) int64 {
	n, err := strconv.ParseInt(d.fields[field], 10, 64)
	if err != nil {
		d.fail(field, err)
	}
	return n
}

func (d *decoder) int(field string) int {
	n, err := strconv.Atoi(d.fields[field])
	if err != nil {
		d.fail(field, err)
	}
	return n
}

func (d *decoder) bool(field string) bool {
	b, err := strconv.ParseBool(d.fields[field])
	if err != nil {
		d.fail(field, err)
	}
	return b
}

func (d *decoder) time(field string) *time.Time {
	raw := d.fields[field]
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		d.fail(field, err)
		return nil
	}
	return &t
}

func (d *decoder) json(field string, dst any) {
	if err := json.Unmarshal([]byte(d.fields[field]), dst); err != nil {
		d.fail(field, err)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
