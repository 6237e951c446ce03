package action

import "github.com/OpenQuester/OpenQuester-sub005/internal/domain"

// client -> server payloads

type JoinPayload struct {
	Role     domain.PlayerRole `json:"role"`
	Slot     *int              `json:"slot,omitempty"`
	Password string            `json:"password,omitempty"`
	// Username is filled by the socket gateway from the user catalog.
	Username string `json:"username,omitempty"`
}

type PlayerTargetPayload struct {
	PlayerID int64 `json:"playerId"`
}

type ScoreChangePayload struct {
	PlayerID int64 `json:"playerId"`
	Score    int64 `json:"score"`
}

type TurnPlayerPayload struct {
	PlayerID *int64 `json:"playerId"`
}

type SlotChangePayload struct {
	Slot int `json:"slot"`
}

type QuestionPickPayload struct {
	QuestionID int64 `json:"questionId"`
}

type AnswerSubmitPayload struct {
	Text string `json:"text"`
}

type AnswerResultPayload struct {
	Result domain.AnswerResultType `json:"result"`
}

type StakeBidPayload struct {
	BidType domain.StakeBidType `json:"bidType"`
	Amount  int64               `json:"amount,omitempty"`
}

type SecretTransferPayload struct {
	TargetPlayerID int64 `json:"targetPlayerId"`
}

type ThemeEliminatePayload struct {
	ThemeID int64 `json:"themeId"`
}

type FinalBidPayload struct {
	Amount int64 `json:"amount"`
}

type FinalReviewPayload struct {
	PlayerID  int64 `json:"playerId"`
	IsCorrect bool  `json:"isCorrect"`
}
