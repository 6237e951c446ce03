package action

import (
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Session is the socket-to-game association stored under socket:<id>.
type Session struct {
	SocketID string `json:"socketId"`
	UserID   int64  `json:"userId"`
	GameID   string `json:"gameId"`
}

// ExecutionContext is everything a handler may look at. It is built from a
// single prefetch and handlers must not do I/O of their own.
type ExecutionContext struct {
	Action GameAction
	// Game is nil when the record does not exist.
	Game *domain.Game
	// Player is the acting participant inside Game, nil if not a member.
	Player *domain.Player
	// Session is nil when the socket is not bound to any game.
	Session *Session
	// TimerTTL is the remaining TTL of timer:<gameId>; <= 0 when absent.
	TimerTTL time.Duration
	Now      time.Time
	Rules    domain.Rules
}

// TimerActive reports whether a timer key currently exists for the game.
func (c *ExecutionContext) TimerActive() bool {
	return c.TimerTTL > 0
}

// Result is returned to the originating socket as the action acknowledgement.
type Result struct {
	Data any `json:"data,omitempty"`
}

// Requirements are the lifecycle checks the executor runs before dispatch.
type Requirements struct {
	// Game requires the game record to exist.
	Game bool
	// Member requires the acting socket and player to belong to the game.
	Member bool
	// Started requires the game to be started.
	Started bool
	// NotPaused rejects the action while the game is paused.
	NotPaused bool
	// AllowFinished lets the action through on a finished game.
	AllowFinished bool
	// ShowmanOnly requires the acting player to be the showman.
	ShowmanOnly bool
}

// Handler handles one action type. Handle is pure: it reads the context and
// returns the mutations to apply, or an error and no mutations.
type Handler interface {
	Type() Type
	Requirements() Requirements
	Handle(ec *ExecutionContext) (Result, []Mutation, error)
}
