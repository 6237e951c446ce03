package store

import "strings"

const (
	gamePrefix   = "game:"
	timerPrefix  = "timer:"
	socketPrefix = "socket:"
	statsPrefix  = "stats:game:"

	// IndexCreated holds every game scored by creation time.
	IndexCreated = "games:index:created"
	// IndexPublic holds joinable games without a password.
	IndexPublic = "games:index:public"
	// IndexActive holds started, unfinished games.
	IndexActive = "games:index:active"
)

// Indexes lists every secondary index a game may appear in.
var Indexes = []string{IndexCreated, IndexPublic, IndexActive}

func GameKey(gameID string) string { return gamePrefix + gameID }

func TimerKey(gameID string) string { return timerPrefix + gameID }

func SocketKey(socketID string) string { return socketPrefix + socketID }

func StatsKey(gameID string) string { return statsPrefix + gameID }

// KeyKind tells which namespace a key belongs to.
type KeyKind int

const (
	KindUnknown KeyKind = iota
	KindGame
	KindTimer
)

// ParseKey splits a namespaced key into its kind and game id.
func ParseKey(key string) (KeyKind, string) {
	switch {
	case strings.HasPrefix(key, timerPrefix):
		if id := strings.TrimPrefix(key, timerPrefix); id != "" {
			return KindTimer, id
		}
	case strings.HasPrefix(key, gamePrefix):
		if id := strings.TrimPrefix(key, gamePrefix); id != "" {
			return KindGame, id
		}
	}
	return KindUnknown, ""
}
