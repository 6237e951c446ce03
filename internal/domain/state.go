package domain

// QuestionState is the round state machine position. Empty means the game is
// still in the lobby.
type QuestionState string

const (
	QuestionStateChoosing         QuestionState = "choosing"
	QuestionStateThemeElimination QuestionState = "theme_elimination"
	QuestionStateBidding          QuestionState = "bidding"
	QuestionStateAnswering        QuestionState = "answering"
	QuestionStateSecretTransfer   QuestionState = "secret_transfer"
	QuestionStateShowing          QuestionState = "showing"
	QuestionStateReviewing        QuestionState = "reviewing"
)

// AnswerResultType is the showman's verdict on an answer.
type AnswerResultType string

const (
	AnswerCorrect AnswerResultType = "correct"
	AnswerWrong   AnswerResultType = "wrong"
)

// GameState is the mutable part of a game that drives the round machine.
type GameState struct {
	QuestionState       QuestionState          `json:"questionState,omitempty"`
	IsPaused            bool                   `json:"isPaused"`
	CurrentRound        *RoundState            `json:"currentRound,omitempty"`
	CurrentQuestion     *CurrentQuestion       `json:"currentQuestion,omitempty"`
	AnsweringPlayer     *int64                 `json:"answeringPlayer,omitempty"`
	AnsweredPlayers     []AnsweredPlayer       `json:"answeredPlayers,omitempty"`
	SkippedPlayers      []int64                `json:"skippedPlayers,omitempty"`
	CurrentTurnPlayerID *int64                 `json:"currentTurnPlayerId,omitempty"`
	ReadyPlayers        []int64                `json:"readyPlayers,omitempty"`
	StakeQuestionData   *StakeQuestionGameData `json:"stakeQuestionData,omitempty"`
	SecretQuestionData  *SecretQuestionData    `json:"secretQuestionData,omitempty"`
	FinalRoundData      *FinalRoundGameData    `json:"finalRoundData,omitempty"`
	Timer               *GameStateTimer        `json:"timer,omitempty"`
	PausedQuestionTimer *GameStateTimer        `json:"pausedQuestionTimer,omitempty"`
}

// RoundState is the per-round progress snapshot.
type RoundState struct {
	Order  int          `json:"order"`
	Name   string       `json:"name"`
	Type   RoundType    `json:"type" validate:"oneof=simple final"`
	Themes []ThemeState `json:"themes" validate:"dive"`
}

type ThemeState struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Order      int            `json:"order"`
	Eliminated bool           `json:"eliminated,omitempty"`
	Questions  []QuestionSlot `json:"questions"`
}

type QuestionSlot struct {
	ID       int64 `json:"id"`
	Order    int   `json:"order"`
	Price    int64 `json:"price"`
	IsPlayed bool  `json:"isPlayed"`
}

// CurrentQuestion identifies the question being played. Price may differ
// from the package price after a stake auction.
type CurrentQuestion struct {
	ID      int64        `json:"id"`
	ThemeID int64        `json:"themeId"`
	Price   int64        `json:"price"`
	Type    QuestionType `json:"type"`
}

type AnsweredPlayer struct {
	PlayerID   int64            `json:"playerId"`
	Result     AnswerResultType `json:"result"`
	ScoreDelta int64            `json:"scoreDelta"`
}

// StakeQuestionGameData is the stake auction ledger for one question.
type StakeQuestionGameData struct {
	PickerID           int64            `json:"pickerId"`
	QuestionID         int64            `json:"questionId"`
	Bids               map[int64]*int64 `json:"bids"`
	PassedPlayers      []int64          `json:"passedPlayers"`
	BiddingOrder       []int64          `json:"biddingOrder"`
	CurrentBidderIndex int              `json:"currentBidderIndex"`
	HighestBid         *int64           `json:"highestBid"`
	WinnerPlayerID     *int64           `json:"winnerPlayerId"`
	BiddingPhase       bool             `json:"biddingPhase"`
}

// SecretQuestionData tracks a secret question until it is handed over.
type SecretQuestionData struct {
	PickerID      int64  `json:"pickerId"`
	QuestionID    int64  `json:"questionId"`
	TransferredTo *int64 `json:"transferredTo,omitempty"`
}

// FinalRoundPhase is the sub-phase of the final round.
type FinalRoundPhase string

const (
	FinalPhaseThemeElimination FinalRoundPhase = "theme_elimination"
	FinalPhaseBidding          FinalRoundPhase = "bidding"
	FinalPhaseAnswering        FinalRoundPhase = "answering"
	FinalPhaseReviewing        FinalRoundPhase = "reviewing"
)

// FinalAnswerOutcome classifies a final answer.
type FinalAnswerOutcome string

const (
	FinalOutcomeCorrect  FinalAnswerOutcome = "correct"
	FinalOutcomeWrong    FinalAnswerOutcome = "wrong"
	FinalOutcomeAutoLoss FinalAnswerOutcome = "auto_loss"
)

type FinalAnswer struct {
	PlayerID   int64              `json:"playerId"`
	Text       string             `json:"text"`
	Outcome    FinalAnswerOutcome `json:"outcome,omitempty"`
	Reviewed   bool               `json:"reviewed"`
	ScoreDelta int64              `json:"scoreDelta"`
}

type FinalRoundGameData struct {
	Phase            FinalRoundPhase `json:"phase" validate:"oneof=theme_elimination bidding answering reviewing"`
	TurnOrder        []int64         `json:"turnOrder"`
	TurnIndex        int             `json:"turnIndex"`
	EliminatedThemes []int64         `json:"eliminatedThemes"`
	Bids             map[int64]int64 `json:"bids"`
	Answers          []FinalAnswer   `json:"answers"`
	ThemeID          *int64          `json:"themeId,omitempty"`
	QuestionID       *int64          `json:"questionId,omitempty"`
}

// Answer returns the player's final answer entry.
func (f *FinalRoundGameData) Answer(playerID int64) (*FinalAnswer, bool) {
	for i := range f.Answers {
		if f.Answers[i].PlayerID == playerID {
			return &f.Answers[i], true
		}
	}
	return nil, false
}

// AllReviewed reports whether every final answer has been judged.
func (f *FinalRoundGameData) AllReviewed() bool {
	for _, a := range f.Answers {
		if !a.Reviewed {
			return false
		}
	}
	return true
}
