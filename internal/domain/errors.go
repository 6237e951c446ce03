package domain

import "errors"

// ClientError is an expected, user-facing rejection. It is reported to the
// originating socket only and never logged as a failure.
type ClientError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ClientError) Error() string { return e.Message }

func newClientError(code, msg string) *ClientError {
	return &ClientError{Code: code, Message: msg}
}

var (
	ErrGameNotFound        = newClientError("game_not_found", "game not found")
	ErrGameNotStarted      = newClientError("game_not_started", "game is not started")
	ErrGameAlreadyStarted  = newClientError("game_already_started", "game is already started")
	ErrGamePaused          = newClientError("game_paused", "game is paused")
	ErrGameFinished        = newClientError("game_finished", "game is finished")
	ErrNotInGame           = newClientError("not_in_game", "you are not in this game")
	ErrAlreadyInGame       = newClientError("already_in_game", "you are already in this game")
	ErrShowmanOnly         = newClientError("showman_only", "only the showman can do this")
	ErrPlayersOnly         = newClientError("players_only", "only players can do this")
	ErrGameFull            = newClientError("game_full", "game is full")
	ErrSlotTaken           = newClientError("slot_taken", "slot is already taken")
	ErrShowmanTaken        = newClientError("showman_taken", "game already has a showman")
	ErrWrongPassword       = newClientError("wrong_password", "wrong game password")
	ErrPlayerRestricted    = newClientError("player_restricted", "player is restricted")
	ErrPlayerNotFound      = newClientError("player_not_found", "player not found")
	ErrInvalidPhase        = newClientError("invalid_phase", "action is not allowed in the current phase")
	ErrNotYourTurn         = newClientError("not_your_turn", "it is not your turn")
	ErrQuestionNotFound    = newClientError("question_not_found", "question not found")
	ErrQuestionPlayed      = newClientError("question_played", "question is already played")
	ErrThemeNotFound       = newClientError("theme_not_found", "theme not found")
	ErrAlreadyAnswered     = newClientError("already_answered", "you already answered this question")
	ErrSomeoneAnswering    = newClientError("someone_answering", "another player is answering")
	ErrNoAnsweringPlayer   = newClientError("no_answering_player", "nobody is answering")
	ErrInsufficientScore   = newClientError("insufficient_score", "insufficient score for this bid")
	ErrBidTooLow           = newClientError("bid_too_low", "bid must exceed the current highest bid")
	ErrInvalidBid          = newClientError("invalid_bid", "invalid bid")
	ErrPickerMustBid       = newClientError("picker_must_bid", "the picker must open the bidding")
	ErrAlreadyBid          = newClientError("already_bid", "you already placed a bid")
	ErrNoMoreRounds        = newClientError("no_more_rounds", "there are no more rounds")
	ErrNotEnoughPlayers    = newClientError("not_enough_players", "not enough players to start")
	ErrCannotEliminateLast = newClientError("cannot_eliminate_last", "the last theme cannot be eliminated")
	ErrInvalidPayload      = newClientError("invalid_payload", "invalid payload")
	ErrUnknownAction       = newClientError("unknown_action", "unknown action")
	ErrBusy                = newClientError("busy", "game is busy, try again")
	ErrPackageNotFound     = newClientError("package_not_found", "package not found")
	ErrUserNotFound        = newClientError("user_not_found", "user not found")
)

// IsClientError reports whether err (or anything it wraps) is a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// AsClientError unwraps err to a ClientError if it is one.
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
