package service

import (
	"context"
	"time"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// ActionRunner runs an action through the engine.
type ActionRunner interface {
	Execute(ctx context.Context, a action.GameAction) (action.Result, error)
}

// SessionDropper forgets a socket session.
type SessionDropper interface {
	DropSocket(ctx context.Context, socketID string) error
}

// LobbyLeaver turns a closed socket into a disconnect action. The game is
// looked up from the socket's session, which is dropped afterwards.
type LobbyLeaver struct {
	exec     ActionRunner
	sessions SessionDropper
	now      func() time.Time
}

func NewLobbyLeaver(exec ActionRunner, sessions SessionDropper) *LobbyLeaver {
	return &LobbyLeaver{exec: exec, sessions: sessions, now: time.Now}
}

func (l *LobbyLeaver) Leave(ctx context.Context, socketID string, userID int64) error {
	_, err := l.exec.Execute(ctx, action.New(action.TypeDisconnect, "", userID, socketID, nil, l.now()))
	if err != nil && !domain.IsClientError(err) {
		return err
	}
	if l.sessions != nil {
		return l.sessions.DropSocket(ctx, socketID)
	}
	return nil
}
