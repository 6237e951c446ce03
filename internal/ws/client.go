package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	readLimit  = 16 * 1024
)

// Executor runs a socket action.
type Executor interface {
	Execute(ctx context.Context, a action.GameAction) (action.Result, error)
}

// Leaver cleans up after a closed socket.
type Leaver interface {
	Leave(ctx context.Context, socketID string, userID int64) error
}

type Client struct {
	ID       string
	UserID   int64
	Username string
	Conn     *websocket.Conn
	send     chan []byte

	hub    *Hub
	exec   Executor
	leaver Leaver

	mu        sync.Mutex
	gameID    string
	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(userID int64, username string, conn *websocket.Conn, hub *Hub, exec Executor, leaver Leaver) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		Conn:     conn,
		send:     make(chan []byte, 256),
		hub:      hub,
		exec:     exec,
		leaver:   leaver,
		done:     make(chan struct{}),
	}
}

// Game returns the game this socket is watching, if any.
func (c *Client) Game() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

func (c *Client) setGame(id string) {
	c.mu.Lock()
	c.gameID = id
	c.mu.Unlock()
}

// Send queues a frame. A client that cannot keep up loses the frame.
func (c *Client) Send(out Outbound) bool {
	b, err := json.Marshal(out)
	if err != nil {
		logger.Error("ws: encode frame failed", "event", out.Event, "error", err)
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		logger.Warn("ws: send buffer full, dropping frame", "socket_id", c.ID, "user_id", c.UserID, "event", out.Event)
		return false
	}
}

func (c *Client) sendJSON(event, requestID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("ws: encode payload failed", "event", event, "error", err)
		return
	}
	c.Send(Outbound{Event: event, Data: data, RequestID: requestID})
}

// Run pumps the connection until it closes, then runs the disconnect path.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	go c.writePump()
	c.sendJSON(EventReady, "", map[string]any{"socketId": c.ID, "userId": c.UserID})

	c.readPump(ctx)

	if c.leaver != nil {
		if err := c.leaver.Leave(ctx, c.ID, c.UserID); err != nil {
			logger.Warn("ws: disconnect cleanup failed", "socket_id", c.ID, "user_id", c.UserID, "error", err)
		}
	}
	c.hub.Unregister(c)
	c.close()
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

//read
func (c *Client) readPump(ctx context.Context) {
	c.Conn.SetReadLimit(readLimit)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws: read error", "socket_id", c.ID, "error", err)
			}
			return
		}
		c.handle(ctx, msg)
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws: write error", "socket_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle turns one inbound frame into an action. Rejections are reported
// by the executor itself; only successes are acknowledged here.
func (c *Client) handle(ctx context.Context, msg []byte) {
	var in Inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		c.sendJSON(EventError, "", ErrorPayload{Code: domain.ErrInvalidPayload.Code, Message: "malformed frame"})
		return
	}
	if in.Event == EventPing {
		c.sendJSON(EventPong, in.RequestID, nil)
		return
	}

	t := action.Type(in.Event)
	if !action.IsKnown(t) || t == action.TypeDisconnect || t == action.TypeTimerExpired {
		c.sendJSON(EventError, in.RequestID, ErrorPayload{Code: domain.ErrUnknownAction.Code, Message: domain.ErrUnknownAction.Message})
		return
	}

	gameID := in.GameID
	if gameID == "" {
		gameID = c.Game()
	}
	data := in.Data
	if t == action.TypeJoin {
		data = c.withUsername(data)
	}

	res, err := c.exec.Execute(ctx, action.New(t, gameID, c.UserID, c.ID, data, time.Now()))
	if err != nil {
		return
	}
	switch t {
	case action.TypeJoin:
		c.hub.Join(c, gameID)
	case action.TypeLeave:
		c.hub.Leave(c)
	}
	c.sendJSON(EventAck, in.RequestID, AckPayload{Type: in.Event, Data: res.Data})
}

// withUsername fills the display name from the authenticated user so clients
// cannot pick their own.
func (c *Client) withUsername(data json.RawMessage) json.RawMessage {
	var in action.JoinPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return data
		}
	}
	in.Username = c.Username
	out, err := json.Marshal(in)
	if err != nil {
		return data
	}
	return out
}
