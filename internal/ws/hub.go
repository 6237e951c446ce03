package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/engine"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/metrics"
)

// Hub tracks the sockets of this process and delivers broadcasts to them.
// With a Redis client every broadcast goes through RelayChannel so sockets
// held by other processes get it too.
type Hub struct {
	Rooms   map[string]*Room
	Sockets map[string]*Client
	mu      sync.RWMutex

	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		Rooms:   make(map[string]*Room),
		Sockets: make(map[string]*Client),
		rdb:     rdb,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.Sockets[c.ID] = c
	h.mu.Unlock()
	metrics.ConnectedSockets.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Sockets[c.ID]; !ok {
		return
	}
	delete(h.Sockets, c.ID)
	h.leaveLocked(c)
	metrics.ConnectedSockets.Dec()
}

// SocketCount reports the sockets held by this process.
func (h *Hub) SocketCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Sockets)
}

// Join moves c into the room of gameID.
func (h *Hub) Join(c *Client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
	room, ok := h.Rooms[gameID]
	if !ok {
		room = NewRoom(gameID)
		h.Rooms[gameID] = room
	}
	room.add(c)
	c.setGame(gameID)
}

// Leave takes c out of its room.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

func (h *Hub) leaveLocked(c *Client) {
	gameID := c.Game()
	if gameID == "" {
		return
	}
	if room, ok := h.Rooms[gameID]; ok {
		room.remove(c)
	}
	c.setGame("")
}

// Deliver implements engine.Broadcaster.
func (h *Hub) Deliver(ctx context.Context, env *engine.Envelope) error {
	if h.rdb == nil {
		h.deliverLocal(env)
		return nil
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ws: encode envelope: %w", err)
	}
	if err := h.rdb.Publish(ctx, RelayChannel, b).Err(); err != nil {
		// the other processes miss this one; local sockets still get it
		h.deliverLocal(env)
		return fmt.Errorf("ws: publish %s: %w", env.Event, err)
	}
	return nil
}

// RunRelay delivers envelopes published by any process until ctx ends.
func (h *Hub) RunRelay(ctx context.Context) error {
	if h.rdb == nil {
		<-ctx.Done()
		return nil
	}
	sub := h.rdb.Subscribe(ctx, RelayChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("ws: subscribe relay: %w", err)
	}
	logger.Info("broadcast relay started", "channel", RelayChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("ws: relay subscription closed")
			}
			var env engine.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Warn("bad relay message", "error", err)
				continue
			}
			h.deliverLocal(&env)
		}
	}
}

func (h *Hub) deliverLocal(env *engine.Envelope) {
	if env.SocketID != "" {
		h.mu.RLock()
		c, ok := h.Sockets[env.SocketID]
		h.mu.RUnlock()
		if ok {
			c.Send(Outbound{Event: string(env.Event), Data: env.Data})
		}
		return
	}

	h.mu.RLock()
	room, ok := h.Rooms[env.Room]
	h.mu.RUnlock()
	if !ok {
		return
	}
	for _, c := range room.Clients() {
		data, ok := env.PayloadFor(c.UserID)
		if !ok {
			continue
		}
		c.Send(Outbound{Event: string(env.Event), Data: data})
	}

	if env.Event == action.EventPlayerKicked {
		h.dropKicked(room, env)
	}
}

// dropKicked takes a kicked user's sockets out of the room.
func (h *Hub) dropKicked(room *Room, env *engine.Envelope) {
	var kicked struct {
		PlayerID int64 `json:"playerId"`
	}
	if err := json.Unmarshal(env.Data, &kicked); err != nil || kicked.PlayerID == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range room.Clients() {
		if c.UserID == kicked.PlayerID {
			h.leaveLocked(c)
		}
	}
}

// SweepRooms drops rooms that have had no sockets for an hour.
func (h *Hub) SweepRooms(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, room := range h.Rooms {
		room.mu.RLock()
		empty := len(room.clients) == 0
		createdAt := room.createdAt
		room.mu.RUnlock()

		if empty && now.Sub(createdAt) > time.Hour {
			delete(h.Rooms, id)
			removed++
		}
	}
	return removed, nil
}
