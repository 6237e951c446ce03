package ws

import (
	"sync"
	"time"
)

// Room holds the local sockets watching one game.
type Room struct {
	ID string

	mu        sync.RWMutex
	clients   map[*Client]struct{}
	createdAt time.Time
}

func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		clients:   make(map[*Client]struct{}),
		createdAt: time.Now(),
	}
}

func (r *Room) add(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

func (r *Room) remove(c *Client) {
	r.mu.Lock()
	delete(r.clients, c)
	r.mu.Unlock()
}

// Clients returns a snapshot of the room's sockets.
func (r *Room) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
