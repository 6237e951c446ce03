package action

import (
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Batch collects the mutations of one handler invocation and hands them out
// in processing order: persistence, broadcast, completion.
type Batch struct {
	game        *domain.Game
	save        bool
	persistence []Mutation
	broadcasts  []Mutation
	completion  []Mutation
}

// NewBatch starts a batch for game. game may be nil for actions that do not
// touch a game record.
func NewBatch(game *domain.Game) *Batch {
	return &Batch{game: game}
}

func (b *Batch) Game() *domain.Game { return b.game }

// Save marks the game record for persistence.
func (b *Batch) Save() *Batch {
	b.save = true
	return b
}

// ArmTimer replaces the game's timer key. The previous key is always deleted
// in the same batch so at most one timer exists per game.
func (b *Batch) ArmTimer(ttl time.Duration) *Batch {
	if ttl < domain.MinTimerTTL {
		ttl = domain.MinTimerTTL
	}
	b.persistence = append(b.persistence,
		DeleteTimer{GameID: b.game.ID},
		SetTimer{GameID: b.game.ID, TTL: ttl},
	)
	return b
}

// ClearTimer deletes the game's timer key.
func (b *Batch) ClearTimer() *Batch {
	b.persistence = append(b.persistence, DeleteTimer{GameID: b.game.ID})
	return b
}

// Session binds or clears a socket's game association.
func (b *Batch) Session(socketID string, userID int64, gameID string) *Batch {
	b.persistence = append(b.persistence, UpdateSession{SocketID: socketID, UserID: userID, GameID: gameID})
	return b
}

// Stats records per-player running statistics.
func (b *Batch) Stats(playerID int64, correct, wrong, scoreDelta int64) *Batch {
	b.persistence = append(b.persistence, UpdatePlayerStats{
		GameID:     b.game.ID,
		PlayerID:   playerID,
		Correct:    correct,
		Wrong:      wrong,
		ScoreDelta: scoreDelta,
	})
	return b
}

// Emit broadcasts data to the whole game room.
func (b *Batch) Emit(event Event, data any) *Batch {
	b.broadcasts = append(b.broadcasts, Broadcast{Event: event, Data: data, Room: b.game.ID})
	return b
}

// EmitFiltered broadcasts with a per-recipient filter.
func (b *Batch) EmitFiltered(event Event, data any, filter RecipientFilter) *Batch {
	b.broadcasts = append(b.broadcasts, Broadcast{Event: event, Data: data, Room: b.game.ID, Filter: filter})
	return b
}

// EmitSplit sends showmanData to the showman and data to everyone else.
func (b *Batch) EmitSplit(event Event, data, showmanData any) *Batch {
	return b.EmitFiltered(event, data, ShowmanSplit(data, showmanData))
}

// ToSocket sends an event to a single socket.
func (b *Batch) ToSocket(socketID string, event Event, data any) *Batch {
	b.broadcasts = append(b.broadcasts, Broadcast{Event: event, Data: data, SocketID: socketID})
	return b
}

// Complete schedules the game-finish lifecycle.
func (b *Batch) Complete() *Batch {
	b.completion = append(b.completion, CompleteGame{GameID: b.game.ID})
	return b
}

// Mutations returns the collected mutations in processing order.
func (b *Batch) Mutations() []Mutation {
	out := make([]Mutation, 0, 1+len(b.persistence)+len(b.broadcasts)+len(b.completion))
	if b.save && b.game != nil {
		out = append(out, SaveGame{Game: b.game})
	}
	out = append(out, b.persistence...)
	out = append(out, b.broadcasts...)
	out = append(out, b.completion...)
	return out
}

// ShowmanSplit is a RecipientFilter giving the showman a richer payload.
func ShowmanSplit(data, showmanData any) RecipientFilter {
	return func(_ *domain.Game, recipient *domain.Player) (any, bool) {
		if recipient != nil && recipient.Role == domain.RoleShowman {
			return showmanData, true
		}
		return data, true
	}
}
