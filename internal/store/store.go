// Package store keeps games, timers, socket sessions and running statistics
// in Redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
)

// Store is the Redis-backed game store.
type Store struct {
	rdb     redis.Cmdable
	gameTTL time.Duration
}

// New returns a store whose game, session and stats keys live for gameTTL
// after their last write.
func New(rdb redis.Cmdable, gameTTL time.Duration) *Store {
	return &Store{rdb: rdb, gameTTL: gameTTL}
}

// Snapshot is the result of the prefetch round trip.
type Snapshot struct {
	Game     *domain.Game
	TimerTTL time.Duration
	Session  *action.Session
}

// Prefetch reads the game, its timer TTL and the socket session in one
// pipelined round trip. A missing game or session is reported as nil.
func (s *Store) Prefetch(ctx context.Context, gameID, socketID string) (Snapshot, error) {
	var (
		gameCmd    *redis.MapStringStringCmd
		ttlCmd     *redis.DurationCmd
		sessionCmd *redis.MapStringStringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if gameID != "" {
			gameCmd = pipe.HGetAll(ctx, GameKey(gameID))
			ttlCmd = pipe.PTTL(ctx, TimerKey(gameID))
		}
		if socketID != "" {
			sessionCmd = pipe.HGetAll(ctx, SocketKey(socketID))
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: prefetch %s: %w", gameID, err)
	}

	var snap Snapshot
	if gameCmd != nil {
		if fields := gameCmd.Val(); len(fields) > 0 {
			g, err := DecodeGame(fields)
			if err != nil {
				return Snapshot{}, fmt.Errorf("store: prefetch %s: %w", gameID, err)
			}
			snap.Game = g
		}
		// PTTL reports -1 and -2 for "no expiry" and "no key".
		if ttl := ttlCmd.Val(); ttl > 0 {
			snap.TimerTTL = ttl
		}
	}
	if sessionCmd != nil {
		snap.Session = decodeSession(socketID, sessionCmd.Val())
	}
	return snap, nil
}

// LoadGame reads a single game.
func (s *Store) LoadGame(ctx context.Context, gameID string) (*domain.Game, error) {
	fields, err := s.rdb.HGetAll(ctx, GameKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: load game %s: %w", gameID, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrGameNotFound
	}
	return DecodeGame(fields)
}

// SaveGame writes a game outside of an action, e.g. at creation.
func (s *Store) SaveGame(ctx context.Context, g *domain.Game) error {
	return s.Write(ctx, func(w *Writer) error { return w.SaveGame(g) })
}

// Write runs fn against a MULTI/EXEC pipeline. Nothing is sent if fn fails.
func (s *Store) Write(ctx context.Context, fn func(w *Writer) error) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(&Writer{ctx: ctx, pipe: pipe, ttl: s.gameTTL})
	})
	if err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	return nil
}

// Writer queues persistence commands into one transaction.
type Writer struct {
	ctx  context.Context
	pipe redis.Pipeliner
	ttl  time.Duration
}

// SaveGame stores the record, refreshes its TTL and keeps the indexes in line
// with its lifecycle.
func (w *Writer) SaveGame(g *domain.Game) error {
	fields, err := EncodeGame(g)
	if err != nil {
		return err
	}
	key := GameKey(g.ID)
	w.pipe.HSet(w.ctx, key, fields)
	w.pipe.PExpire(w.ctx, key, w.ttl)

	w.pipe.ZAdd(w.ctx, IndexCreated, redis.Z{Score: float64(g.CreatedAt.UnixMilli()), Member: g.ID})
	if !g.IsPrivate && !g.IsFinished() {
		w.pipe.ZAdd(w.ctx, IndexPublic, redis.Z{Score: float64(g.CreatedAt.UnixMilli()), Member: g.ID})
	} else {
		w.pipe.ZRem(w.ctx, IndexPublic, g.ID)
	}
	if g.IsStarted() && !g.IsFinished() {
		w.pipe.ZAdd(w.ctx, IndexActive, redis.Z{Score: float64(g.StartedAt.UnixMilli()), Member: g.ID})
	} else {
		w.pipe.ZRem(w.ctx, IndexActive, g.ID)
	}
	return nil
}

func (w *Writer) SetTimer(gameID string, ttl time.Duration) {
	if ttl < domain.MinTimerTTL {
		ttl = domain.MinTimerTTL
	}
	w.pipe.Set(w.ctx, TimerKey(gameID), "1", ttl)
}

func (w *Writer) DeleteTimer(gameID string) {
	w.pipe.Del(w.ctx, TimerKey(gameID))
}

// UpdateSession binds socketID to gameID, or drops the session when gameID
// is empty.
func (w *Writer) UpdateSession(socketID string, userID int64, gameID string) {
	key := SocketKey(socketID)
	if gameID == "" {
		w.pipe.Del(w.ctx, key)
		return
	}
	w.pipe.HSet(w.ctx, key, "socketId", socketID, "userId", strconv.FormatInt(userID, 10), "gameId", gameID)
	w.pipe.PExpire(w.ctx, key, w.ttl)
}

// IncrStats bumps the running counters of one player.
func (w *Writer) IncrStats(gameID string, playerID, correct, wrong, scoreDelta int64) {
	key := StatsKey(gameID)
	prefix := strconv.FormatInt(playerID, 10) + ":"
	if correct != 0 {
		w.pipe.HIncrBy(w.ctx, key, prefix+"correct", correct)
	}
	if wrong != 0 {
		w.pipe.HIncrBy(w.ctx, key, prefix+"wrong", wrong)
	}
	w.pipe.HIncrBy(w.ctx, key, prefix+"score", scoreDelta)
	w.pipe.PExpire(w.ctx, key, w.ttl)
}

// PlayerStats are the running counters of one player in one game.
type PlayerStats struct {
	PlayerID   int64
	Correct    int64
	Wrong      int64
	ScoreDelta int64
}

// GameStats returns the running counters of every player of a game.
func (s *Store) GameStats(ctx context.Context, gameID string) (map[int64]*PlayerStats, error) {
	raw, err := s.rdb.HGetAll(ctx, StatsKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: game stats %s: %w", gameID, err)
	}
	out := make(map[int64]*PlayerStats)
	for field, value := range raw {
		idStr, counter, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		ps := out[id]
		if ps == nil {
			ps = &PlayerStats{PlayerID: id}
			out[id] = ps
		}
		switch counter {
		case "correct":
			ps.Correct = n
		case "wrong":
			ps.Wrong = n
		case "score":
			ps.ScoreDelta = n
		}
	}
	return out, nil
}

// RetryTimer arms timer:<gameID> again unless a newer timer already exists,
// so an expiry that could not be handled fires once more.
func (s *Store) RetryTimer(ctx context.Context, gameID string, ttl time.Duration) error {
	if ttl < domain.MinTimerTTL {
		ttl = domain.MinTimerTTL
	}
	if err := s.rdb.SetNX(ctx, TimerKey(gameID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("store: retry timer %s: %w", gameID, err)
	}
	return nil
}

// Forget removes a game from every index and drops its statistics.
func (s *Store) Forget(ctx context.Context, gameID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, idx := range Indexes {
			pipe.ZRem(ctx, idx, gameID)
		}
		pipe.Del(ctx, StatsKey(gameID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: forget %s: %w", gameID, err)
	}
	return nil
}

// ListGames pages through an index, newest first. Entries whose record has
// expired are skipped.
func (s *Store) ListGames(ctx context.Context, index string, offset, limit int64) ([]*domain.Game, error) {
	ids, err := s.rdb.ZRevRange(ctx, index, offset, offset+limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", index, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, GameKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", index, err)
	}
	games := make([]*domain.Game, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		g, err := DecodeGame(fields)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

// SweepIndexes removes index entries whose game record no longer exists and
// returns how many ids were dropped.
func (s *Store) SweepIndexes(ctx context.Context) (int, error) {
	ids, err := s.rdb.ZRange(ctx, IndexCreated, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("store: sweep: %w", err)
	}
	removed := 0
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, GameKey(id)).Result()
		if err != nil {
			return removed, fmt.Errorf("store: sweep %s: %w", id, err)
		}
		if n > 0 {
			continue
		}
		if err := s.Forget(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// BindSocket records a freshly connected socket before it joins any game.
func (s *Store) BindSocket(ctx context.Context, socketID string, userID int64) error {
	key := SocketKey(socketID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "socketId", socketID, "userId", strconv.FormatInt(userID, 10))
		pipe.PExpire(ctx, key, s.gameTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: bind socket %s: %w", socketID, err)
	}
	return nil
}

// DropSocket removes a socket session.
func (s *Store) DropSocket(ctx context.Context, socketID string) error {
	if err := s.rdb.Del(ctx, SocketKey(socketID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("store: drop socket %s: %w", socketID, err)
	}
	return nil
}

func decodeSession(socketID string, fields map[string]string) *action.Session {
	if len(fields) == 0 {
		return nil
	}
	userID, _ := strconv.ParseInt(fields["userId"], 10, 64)
	return &action.Session{SocketID: socketID, UserID: userID, GameID: fields["gameId"]}
}
