package domain

// PlayerRole is a participant's role in a game.
type PlayerRole string

const (
	RoleShowman   PlayerRole = "showman"
	RolePlayer    PlayerRole = "player"
	RoleSpectator PlayerRole = "spectator"
)

// PlayerGameStatus tracks whether a participant is connected.
type PlayerGameStatus string

const (
	PlayerStatusInGame       PlayerGameStatus = "in_game"
	PlayerStatusDisconnected PlayerGameStatus = "disconnected"
)

// Player is a participant embedded in a Game.
type Player struct {
	ID         int64            `json:"id" validate:"required"`
	Username   string           `json:"username"`
	Role       PlayerRole       `json:"role" validate:"oneof=showman player spectator"`
	Slot       *int             `json:"slot,omitempty" validate:"omitempty,gte=0"`
	Score      int64            `json:"score"`
	GameStatus PlayerGameStatus `json:"gameStatus" validate:"oneof=in_game disconnected"`
	Restricted bool             `json:"restricted,omitempty"`
	// SocketID is the socket the participant last joined from.
	SocketID   string           `json:"socketId,omitempty"`
}

// Superseded reports whether socketID is an older connection of p.
func (p *Player) Superseded(socketID string) bool {
	return p.SocketID != "" && socketID != "" && p.SocketID != socketID
}

// PlayerScore returns the score as a clamped value object.
func (p *Player) PlayerScore(bound int64) PlayerScore {
	return NewPlayerScore(p.Score, bound)
}

// ApplyScore stores s and returns the effective delta.
func (p *Player) ApplyScore(s PlayerScore) int64 {
	delta := s.Value() - p.Score
	p.Score = s.Value()
	return delta
}

// IsActivePlayer reports whether p can take part in questions.
func (p *Player) IsActivePlayer() bool {
	return p.Role == RolePlayer && p.GameStatus == PlayerStatusInGame && !p.Restricted
}
