package domain

import "time"

// User is an account from the user catalog.
type User struct {
	ID          int64     `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	GamesPlayed int64     `db:"games_played" json:"gamesPlayed"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// GameResult is one participant's outcome of a finished game.
type GameResult struct {
	GameID     string     `json:"gameId"`
	PlayerID   int64      `json:"playerId"`
	Role       PlayerRole `json:"role"`
	FinalScore int64      `json:"finalScore"`
	Place      int        `json:"place"`
	Correct    int64      `json:"correct"`
	Wrong      int64      `json:"wrong"`
	ScoreDelta int64      `json:"scoreDelta"`
}
