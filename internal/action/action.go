package action

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of inbound action kinds.
type Type string

const (
	TypeJoin                   Type = "join"
	TypeLeave                  Type = "leave"
	TypeDisconnect             Type = "disconnect"
	TypeStart                  Type = "start"
	TypePause                  Type = "pause"
	TypeUnpause                Type = "unpause"
	TypeNextRound              Type = "next_round"
	TypePlayerReady            Type = "player_ready"
	TypePlayerUnready          Type = "player_unready"
	TypePlayerKick             Type = "player_kick"
	TypePlayerScoreChange      Type = "player_score_change"
	TypeTurnPlayerChange       Type = "turn_player_change"
	TypePlayerSlotChange       Type = "player_slot_change"
	TypeQuestionPick           Type = "question_pick"
	TypeAnswerRequest          Type = "answer_request"
	TypeAnswerSubmit           Type = "answer_submit"
	TypeAnswerResult           Type = "answer_result"
	TypeQuestionSkip           Type = "question_skip"
	TypeQuestionForceSkip      Type = "question_force_skip"
	TypeStakeBidSubmit         Type = "stake_bid_submit"
	TypeSecretQuestionTransfer Type = "secret_question_transfer"
	TypeFinalThemeEliminate    Type = "final_theme_eliminate"
	TypeFinalBidSubmit         Type = "final_bid_submit"
	TypeFinalAnswerSubmit      Type = "final_answer_submit"
	TypeFinalAnswerReview      Type = "final_answer_review"
	TypeTimerExpired           Type = "timer_expired"
)

// AllTypes lists every action kind. The handler registry must cover all of them.
var AllTypes = []Type{
	TypeJoin, TypeLeave, TypeDisconnect, TypeStart, TypePause, TypeUnpause,
	TypeNextRound, TypePlayerReady, TypePlayerUnready, TypePlayerKick,
	TypePlayerScoreChange, TypeTurnPlayerChange, TypePlayerSlotChange,
	TypeQuestionPick, TypeAnswerRequest, TypeAnswerSubmit, TypeAnswerResult,
	TypeQuestionSkip, TypeQuestionForceSkip, TypeStakeBidSubmit,
	TypeSecretQuestionTransfer, TypeFinalThemeEliminate, TypeFinalBidSubmit,
	TypeFinalAnswerSubmit, TypeFinalAnswerReview, TypeTimerExpired,
}

// IsKnown reports whether t belongs to the closed set.
func IsKnown(t Type) bool {
	for _, k := range AllTypes {
		if k == t {
			return true
		}
	}
	return false
}

// SystemPlayerID marks actions that do not come from a person.
const SystemPlayerID int64 = 0

// GameAction is one inbound intent. It is never mutated after creation.
type GameAction struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	GameID    string          `json:"gameId"`
	PlayerID  int64           `json:"playerId"`
	SocketID  string          `json:"socketId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// New builds an action with a fresh id.
func New(t Type, gameID string, playerID int64, socketID string, payload json.RawMessage, now time.Time) GameAction {
	return GameAction{
		ID:        uuid.NewString(),
		Type:      t,
		GameID:    gameID,
		PlayerID:  playerID,
		SocketID:  socketID,
		Timestamp: now,
		Payload:   payload,
	}
}

// IsSystem reports whether the action was synthesized by the server.
func (a GameAction) IsSystem() bool {
	return a.PlayerID == SystemPlayerID
}

// DecodePayload unmarshals the payload into T.
func DecodePayload[T any](a GameAction) (T, error) {
	var out T
	if len(a.Payload) == 0 {
		return out, nil
	}
	err := json.Unmarshal(a.Payload, &out)
	return out, err
}
