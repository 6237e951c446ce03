package ws

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
)

// SessionBinder records a socket before it joins a game.
type SessionBinder interface {
	BindSocket(ctx context.Context, socketID string, userID int64) error
}

// UserDirectory resolves display names.
type UserDirectory interface {
	Username(ctx context.Context, userID int64) (string, error)
}

// Gateway wires upgraded connections to the hub and the action executor.
type Gateway struct {
	Hub      *Hub
	Exec     Executor
	Leaver   Leaver
	Sessions SessionBinder
	Users    UserDirectory
	// BaseCtx outlives the HTTP request that upgraded the connection.
	BaseCtx context.Context
}

// Serve runs a connection for userID. It returns once the client goroutine
// is started.
func (g *Gateway) Serve(conn *websocket.Conn, userID int64) {
	ctx := g.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	username := ""
	if g.Users != nil {
		name, err := g.Users.Username(ctx, userID)
		if err != nil {
			logger.Warn("ws: username lookup failed", "user_id", userID, "error", err)
		}
		username = name
	}

	client := NewClient(userID, username, conn, g.Hub, g.Exec, g.Leaver)
	if g.Sessions != nil {
		if err := g.Sessions.BindSocket(ctx, client.ID, userID); err != nil {
			logger.Error("ws: bind socket failed", "user_id", userID, "error", err)
			_ = conn.Close()
			return
		}
	}
	logger.Info("ws: client connected", "socket_id", client.ID, "user_id", userID)
	go client.Run(ctx)
}
