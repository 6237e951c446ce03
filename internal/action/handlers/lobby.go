package handlers

import (
	"slices"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
)

func newJoin() *handler {
	return &handler{
		typ: action.TypeJoin,
		req: action.Requirements{Game: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			in, err := decode[action.JoinPayload](ec.Action)
			if err != nil {
				return action.Result{}, err
			}
			g := c.Game
			userID := ec.Action.PlayerID

			if p, ok := g.Player(userID); ok {
				// rejoin from a new socket
				if p.Restricted {
					return action.Result{}, domain.ErrPlayerRestricted
				}
				wasAway := p.GameStatus == domain.PlayerStatusDisconnected
				p.GameStatus = domain.PlayerStatusInGame
				p.SocketID = ec.Action.SocketID
				c.Batch.Save()
				c.Batch.Session(ec.Action.SocketID, userID, g.ID)
				if wasAway {
					c.Batch.Emit(action.EventPlayerJoined, map[string]any{"player": p, "rejoined": true})
				}
				c.Batch.ToSocket(ec.Action.SocketID, action.EventJoinAck, gameView(g))
				return action.Result{Data: gameView(g)}, nil
			}

			if g.IsPrivate && g.Password != "" && in.Password != g.Password {
				return action.Result{}, domain.ErrWrongPassword
			}
			role := in.Role
			if role == "" {
				role = domain.RolePlayer
			}
			p := domain.Player{ID: userID, Username: in.Username, Role: role, GameStatus: domain.PlayerStatusInGame, SocketID: ec.Action.SocketID}
			switch role {
			case domain.RoleShowman:
				if _, taken := g.Showman(); taken {
					return action.Result{}, domain.ErrShowmanTaken
				}
			case domain.RolePlayer:
				if g.PlayersCount() >= g.MaxPlayers {
					return action.Result{}, domain.ErrGameFull
				}
				slot, err := pickSlot(g, userID, in.Slot)
				if err != nil {
					return action.Result{}, err
				}
				p.Slot = &slot
			case domain.RoleSpectator:
			default:
				return action.Result{}, domain.ErrInvalidPayload
			}

			g.Players = append(g.Players, p)
			c.Batch.Save()
			c.Batch.Session(ec.Action.SocketID, userID, g.ID)
			c.Batch.Emit(action.EventPlayerJoined, map[string]any{"player": p})
			c.Batch.ToSocket(ec.Action.SocketID, action.EventJoinAck, gameView(g))
			return action.Result{Data: gameView(g)}, nil
		},
	}
}

func pickSlot(g *domain.Game, userID int64, want *int) (int, error) {
	if want == nil {
		slot, ok := g.FreeSlot()
		if !ok {
			return 0, domain.ErrGameFull
		}
		return slot, nil
	}
	if *want < 0 || *want >= g.MaxPlayers || g.SlotTaken(*want, userID) {
		return 0, domain.ErrSlotTaken
	}
	return *want, nil
}

func newLeave(rounds *round.Resolver) *handler {
	return &handler{
		typ: action.TypeLeave,
		req: action.Requirements{Game: true, Member: true, AllowFinished: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			if err := leaveGame(rounds, ec, c, ec.Action.PlayerID); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}

// newDisconnect handles a closed socket. Sockets that are not bound to the
// game, or that the player has since replaced by rejoining, only get their
// session cleared.
func newDisconnect(rounds *round.Resolver) *handler {
	return &handler{
		typ: action.TypeDisconnect,
		req: action.Requirements{AllowFinished: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			bound := ec.Session != nil && ec.Game != nil && ec.Session.GameID == ec.Game.ID
			if !bound || ec.Player == nil || ec.Player.Superseded(ec.Action.SocketID) {
				if ec.Session != nil {
					c.Batch.Session(ec.Action.SocketID, ec.Action.PlayerID, "")
				}
				return action.Result{}, nil
			}
			if err := leaveGame(rounds, ec, c, ec.Action.PlayerID); err != nil {
				return action.Result{}, err
			}
			return action.Result{}, nil
		},
	}
}

// leaveGame drops a participant. Lobby members and spectators are removed,
// players of a running game stay on the roster as disconnected.
func leaveGame(rounds *round.Resolver, ec *action.ExecutionContext, c *round.Context, playerID int64) error {
	g := c.Game
	p, ok := g.Player(playerID)
	if !ok {
		return domain.ErrNotInGame
	}
	running := g.IsStarted() && !g.IsFinished()
	role := p.Role

	if !running || role == domain.RoleSpectator {
		g.RemovePlayer(playerID)
		g.GameState.ReadyPlayers = slices.DeleteFunc(g.GameState.ReadyPlayers, func(id int64) bool { return id == playerID })
	} else {
		p.GameStatus = domain.PlayerStatusDisconnected
	}

	c.Batch.Save()
	c.Batch.Session(ec.Action.SocketID, ec.Action.PlayerID, "")
	c.Batch.Emit(action.EventPlayerLeft, map[string]any{"playerId": playerID})

	if running && role == domain.RolePlayer {
		return rounds.OnPlayerLeft(c, playerID)
	}
	return nil
}

func newKick(rounds *round.Resolver) *handler {
	return &handler{
		typ: action.TypePlayerKick,
		req: action.Requirements{Game: true, Member: true, ShowmanOnly: true, AllowFinished: true},
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			in, err := decode[action.PlayerTargetPayload](ec.Action)
			if err != nil {
				return action.Result{}, err
			}
			g := c.Game
			target, ok := g.Player(in.PlayerID)
			if !ok || target.Role == domain.RoleShowman {
				return action.Result{}, domain.ErrPlayerNotFound
			}
			running := g.IsStarted() && !g.IsFinished()
			role := target.Role
			if running && role == domain.RolePlayer {
				target.GameStatus = domain.PlayerStatusDisconnected
				target.Restricted = true
			} else {
				g.RemovePlayer(in.PlayerID)
				g.GameState.ReadyPlayers = slices.DeleteFunc(g.GameState.ReadyPlayers, func(id int64) bool { return id == in.PlayerID })
			}
			c.Batch.Save()
			c.Batch.Emit(action.EventPlayerKicked, map[string]any{"playerId": in.PlayerID})
			if running && role == domain.RolePlayer {
				if err := rounds.OnPlayerLeft(c, in.PlayerID); err != nil {
					return action.Result{}, err
				}
			}
			return action.Result{}, nil
		},
	}
}

func newReady(ready bool) *handler {
	typ, event := action.TypePlayerReady, action.EventPlayerReady
	if !ready {
		typ, event = action.TypePlayerUnready, action.EventPlayerUnready
	}
	return &handler{
		typ: typ,
		req: member,
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			g := c.Game
			if g.IsStarted() {
				return action.Result{}, domain.ErrGameAlreadyStarted
			}
			p, err := actor(ec, c)
			if err != nil {
				return action.Result{}, err
			}
			if p.Role != domain.RolePlayer {
				return action.Result{}, domain.ErrPlayersOnly
			}
			st := &g.GameState
			has := slices.Contains(st.ReadyPlayers, p.ID)
			switch {
			case ready && !has:
				st.ReadyPlayers = append(st.ReadyPlayers, p.ID)
			case !ready && has:
				st.ReadyPlayers = slices.DeleteFunc(st.ReadyPlayers, func(id int64) bool { return id == p.ID })
			default:
				return action.Result{}, nil
			}
			c.Batch.Save()
			c.Batch.Emit(event, map[string]any{"playerId": p.ID, "readyPlayers": st.ReadyPlayers})
			return action.Result{}, nil
		},
	}
}

func newSlotChange() *handler {
	return &handler{
		typ: action.TypePlayerSlotChange,
		req: member,
		fn: func(ec *action.ExecutionContext, c *round.Context) (action.Result, error) {
			in, err := decode[action.SlotChangePayload](ec.Action)
			if err != nil {
				return action.Result{}, err
			}
			p, err := actor(ec, c)
			if err != nil {
				return action.Result{}, err
			}
			if p.Role != domain.RolePlayer {
				return action.Result{}, domain.ErrPlayersOnly
			}
			slot, err := pickSlot(c.Game, p.ID, &in.Slot)
			if err != nil {
				return action.Result{}, err
			}
			p.Slot = &slot
			c.Batch.Save()
			c.Batch.Emit(action.EventPlayerSlotChanged, map[string]any{"playerId": p.ID, "slot": slot})
			return action.Result{}, nil
		},
	}
}
