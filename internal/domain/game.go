package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// Game is the whole state of one game as stored under game:<id>.
type Game struct {
	ID             string     `json:"id" validate:"required"`
	CreatedBy      int64      `json:"createdBy" validate:"required"`
	Title          string     `json:"title" validate:"required,max=200"`
	CreatedAt      time.Time  `json:"createdAt" validate:"required"`
	IsPrivate      bool       `json:"isPrivate"`
	Password       string     `json:"password,omitempty"`
	AgeRestriction string     `json:"ageRestriction"`
	Players        []Player   `json:"players" validate:"dive"`
	MaxPlayers     int        `json:"maxPlayers" validate:"gte=1,lte=16"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	RoundIndex     []int      `json:"roundIndex"`
	RoundsCount    int        `json:"roundsCount" validate:"gte=0"`
	QuestionsCount int        `json:"questionsCount" validate:"gte=0"`
	Package        Package    `json:"package"`
	GameState      GameState  `json:"gameState"`
}

func (g *Game) IsStarted() bool { return g.StartedAt != nil }

func (g *Game) IsFinished() bool { return g.FinishedAt != nil }

// Player returns the participant with the given id.
func (g *Game) Player(id int64) (*Player, bool) {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// Showman returns the game's showman, if any.
func (g *Game) Showman() (*Player, bool) {
	for i := range g.Players {
		if g.Players[i].Role == RoleShowman {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// ActivePlayers returns the ids of players able to play, ordered by slot.
func (g *Game) ActivePlayers() []int64 {
	active := make([]*Player, 0, len(g.Players))
	for i := range g.Players {
		if g.Players[i].IsActivePlayer() {
			active = append(active, &g.Players[i])
		}
	}
	slices.SortStableFunc(active, func(a, b *Player) int {
		return slotOf(a) - slotOf(b)
	})
	ids := make([]int64, len(active))
	for i, p := range active {
		ids[i] = p.ID
	}
	return ids
}

// PlayersCount counts participants with the player role.
func (g *Game) PlayersCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Role == RolePlayer {
			n++
		}
	}
	return n
}

// FreeSlot returns the lowest slot not taken by a player.
func (g *Game) FreeSlot() (int, bool) {
	taken := make(map[int]bool)
	for _, p := range g.Players {
		if p.Role == RolePlayer && p.Slot != nil {
			taken[*p.Slot] = true
		}
	}
	for s := 0; s < g.MaxPlayers; s++ {
		if !taken[s] {
			return s, true
		}
	}
	return 0, false
}

// SlotTaken reports whether another player holds slot.
func (g *Game) SlotTaken(slot int, except int64) bool {
	for _, p := range g.Players {
		if p.ID != except && p.Role == RolePlayer && p.Slot != nil && *p.Slot == slot {
			return true
		}
	}
	return false
}

// RemovePlayer drops a participant from the roster.
func (g *Game) RemovePlayer(id int64) {
	g.Players = slices.DeleteFunc(g.Players, func(p Player) bool { return p.ID == id })
}

// CurrentPackageRound resolves the round being played.
func (g *Game) CurrentPackageRound() (*PackageRound, bool) {
	if g.GameState.CurrentRound == nil {
		return nil, false
	}
	return g.Package.Round(g.GameState.CurrentRound.Order)
}

// NextRoundOrder returns the round that follows the current one.
func (g *Game) NextRoundOrder() (int, bool) {
	if g.GameState.CurrentRound == nil {
		if len(g.RoundIndex) == 0 {
			return 0, false
		}
		return g.RoundIndex[0], true
	}
	pos := slices.Index(g.RoundIndex, g.GameState.CurrentRound.Order)
	if pos < 0 || pos+1 >= len(g.RoundIndex) {
		return 0, false
	}
	return g.RoundIndex[pos+1], true
}

// Clone deep-copies the game so handlers never touch the prefetched record.
func (g *Game) Clone() *Game {
	raw, err := json.Marshal(g)
	if err != nil {
		panic("domain: clone game: " + err.Error())
	}
	var out Game
	if err := json.Unmarshal(raw, &out); err != nil {
		panic("domain: clone game: " + err.Error())
	}
	return &out
}

func slotOf(p *Player) int {
	if p.Slot == nil {
		return 1 << 30
	}
	return *p.Slot
}
