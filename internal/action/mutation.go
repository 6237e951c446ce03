package action

import (
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Mutation is a declared side effect. Handlers only collect mutations; the
// processor is the one place that applies them.
//
//sumtype:decl
type Mutation interface {
	isMutation()
}

// Class orders mutations inside one batch.
type Class int

const (
	ClassPersistence Class = iota
	ClassBroadcast
	ClassCompletion
)

// SaveGame persists the whole game record and refreshes its TTL.
type SaveGame struct {
	Game *domain.Game
}

// SetTimer writes timer:<gameId> with the given TTL.
type SetTimer struct {
	GameID string
	TTL    time.Duration
}

// DeleteTimer removes timer:<gameId>.
type DeleteTimer struct {
	GameID string
}

// UpdateSession binds a socket to a game. An empty GameID clears the binding.
type UpdateSession struct {
	SocketID string
	UserID   int64
	GameID   string
}

// UpdatePlayerStats increments a player's running per-game statistics.
type UpdatePlayerStats struct {
	GameID     string
	PlayerID   int64
	Correct    int64
	Wrong      int64
	ScoreDelta int64
}

// RecipientFilter shapes the payload for one recipient. recipient is nil for
// sockets whose user is not in the game. Returning false skips the socket.
type RecipientFilter func(game *domain.Game, recipient *domain.Player) (any, bool)

// Broadcast emits an event to a game room, or to a single socket when
// SocketID is set.
type Broadcast struct {
	Event    Event
	Data     any
	Room     string
	SocketID string
	Filter   RecipientFilter
	// Game overrides the snapshot the filter is evaluated against.
	Game *domain.Game
}

// CompleteGame runs the game-finish lifecycle.
type CompleteGame struct {
	GameID string
}

func (SaveGame) isMutation()          {}
func (SetTimer) isMutation()          {}
func (DeleteTimer) isMutation()       {}
func (UpdateSession) isMutation()     {}
func (UpdatePlayerStats) isMutation() {}
func (Broadcast) isMutation()         {}
func (CompleteGame) isMutation()      {}

// ClassOf returns the stage a mutation belongs to.
func ClassOf(m Mutation) Class {
	switch m.(type) {
	case SaveGame, SetTimer, DeleteTimer, UpdateSession, UpdatePlayerStats:
		return ClassPersistence
	case Broadcast:
		return ClassBroadcast
	case CompleteGame:
		return ClassCompletion
	default:
		panic("action: unknown mutation type")
	}
}
