package domain

// RoundType selects the round handler.
type RoundType string

const (
	RoundTypeSimple RoundType = "simple"
	RoundTypeFinal  RoundType = "final"
)

// QuestionType decides how a picked question is played.
type QuestionType string

const (
	QuestionTypeSimple QuestionType = "simple"
	QuestionTypeStake  QuestionType = "stake"
	QuestionTypeSecret QuestionType = "secret"
	QuestionTypeNoRisk QuestionType = "no_risk"
	QuestionTypeHidden QuestionType = "hidden"
)

// Package is the question tree a game is played from. It is copied into the
// game record at creation so actions never need the catalog.
type Package struct {
	ID             int64          `json:"id" validate:"required"`
	Title          string         `json:"title" validate:"required"`
	AgeRestriction string         `json:"ageRestriction,omitempty"`
	Rounds         []PackageRound `json:"rounds" validate:"required,min=1,dive"`
}

type PackageRound struct {
	Order  int            `json:"order" validate:"gte=0"`
	Name   string         `json:"name"`
	Type   RoundType      `json:"type" validate:"oneof=simple final"`
	Themes []PackageTheme `json:"themes" validate:"required,min=1,dive"`
}

type PackageTheme struct {
	ID        int64             `json:"id" validate:"required"`
	Order     int               `json:"order"`
	Name      string            `json:"name"`
	Questions []PackageQuestion `json:"questions" validate:"dive"`
}

type PackageQuestion struct {
	ID     int64        `json:"id" validate:"required"`
	Order  int          `json:"order"`
	Price  int64        `json:"price" validate:"gte=0"`
	Type   QuestionType `json:"type" validate:"oneof=simple stake secret no_risk hidden"`
	Text   string       `json:"text"`
	Answer string       `json:"answer"`
	// TimeSeconds overrides the configured question time when > 0.
	TimeSeconds int `json:"timeSeconds,omitempty"`
}

// Round returns the round with the given order.
func (p *Package) Round(order int) (*PackageRound, bool) {
	for i := range p.Rounds {
		if p.Rounds[i].Order == order {
			return &p.Rounds[i], true
		}
	}
	return nil, false
}

// QuestionsCount counts questions across all rounds.
func (p *Package) QuestionsCount() int {
	n := 0
	for _, r := range p.Rounds {
		for _, t := range r.Themes {
			n += len(t.Questions)
		}
	}
	return n
}

// Question finds a question and its theme inside the round.
func (r *PackageRound) Question(id int64) (*PackageQuestion, *PackageTheme, bool) {
	for ti := range r.Themes {
		theme := &r.Themes[ti]
		for qi := range theme.Questions {
			if theme.Questions[qi].ID == id {
				return &theme.Questions[qi], theme, true
			}
		}
	}
	return nil, nil, false
}

// Theme finds a theme by id.
func (r *PackageRound) Theme(id int64) (*PackageTheme, bool) {
	for i := range r.Themes {
		if r.Themes[i].ID == id {
			return &r.Themes[i], true
		}
	}
	return nil, false
}
