package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Envelope is a broadcast with every recipient filter already evaluated, so
// it can cross process boundaries as plain JSON.
type Envelope struct {
	Event action.Event `json:"event"`
	// Room is the game id; empty for a single-socket delivery.
	Room     string `json:"room,omitempty"`
	SocketID string `json:"socketId,omitempty"`
	// Data goes to every recipient without an entry in PerUser.
	Data json.RawMessage `json:"data,omitempty"`
	// PerUser overrides Data for game members.
	PerUser map[int64]json.RawMessage `json:"perUser,omitempty"`
	// Skip lists members that must not receive the event.
	Skip []int64 `json:"skip,omitempty"`
	// MembersOnly drops sockets whose user is not in the game.
	MembersOnly bool `json:"membersOnly,omitempty"`
}

// PayloadFor returns what user should receive, false if nothing.
func (e *Envelope) PayloadFor(userID int64) (json.RawMessage, bool) {
	for _, id := range e.Skip {
		if id == userID {
			return nil, false
		}
	}
	if data, ok := e.PerUser[userID]; ok {
		return data, true
	}
	if e.MembersOnly {
		return nil, false
	}
	return e.Data, true
}

// Seal resolves b against snapshot.
func Seal(b action.Broadcast, snapshot *domain.Game) (*Envelope, error) {
	env := &Envelope{Event: b.Event, Room: b.Room, SocketID: b.SocketID}
	if b.Filter == nil || snapshot == nil {
		data, err := marshal(b.Data)
		if err != nil {
			return nil, fmt.Errorf("engine: seal %s: %w", b.Event, err)
		}
		env.Data = data
		return env, nil
	}

	outsider, ok := b.Filter(snapshot, nil)
	if ok {
		data, err := marshal(outsider)
		if err != nil {
			return nil, fmt.Errorf("engine: seal %s: %w", b.Event, err)
		}
		env.Data = data
	} else {
		env.MembersOnly = true
	}

	for i := range snapshot.Players {
		p := &snapshot.Players[i]
		payload, ok := b.Filter(snapshot, p)
		if !ok {
			env.Skip = append(env.Skip, p.ID)
			continue
		}
		data, err := marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("engine: seal %s for %d: %w", b.Event, p.ID, err)
		}
		if !env.MembersOnly && bytes.Equal(data, env.Data) {
			continue
		}
		if env.PerUser == nil {
			env.PerUser = make(map[int64]json.RawMessage)
		}
		env.PerUser[p.ID] = data
	}
	return env, nil
}

func marshal(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
