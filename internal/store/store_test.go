package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/gametest"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, 24*time.Hour), mr, rdb
}

func TestCodec_RoundTrip(t *testing.T) {
	g := gametest.Game()
	started := gametest.Now
	g.StartedAt = &started
	bid := int64(50)
	g.GameState = domain.GameState{
		QuestionState: domain.QuestionStateBidding,
		StakeQuestionData: &domain.StakeQuestionGameData{
			PickerID:     1,
			QuestionID:   gametest.QStake,
			Bids:         map[int64]*int64{1: &bid, 2: nil},
			BiddingOrder: []int64{1, 2, 3},
			HighestBid:   &bid,
			BiddingPhase: true,
		},
	}

	fields, err := EncodeGame(g)
	require.NoError(t, err)
	flat := make(map[string]string, len(fields))
	for k, v := range fields {
		flat[k] = v.(string)
	}
	flat["legacyField"] = "ignored"

	out, err := DecodeGame(flat)
	require.NoError(t, err)
	assert.Equal(t, g.ID, out.ID)
	assert.Equal(t, g.Players, out.Players)
	assert.True(t, g.CreatedAt.Equal(out.CreatedAt))
	assert.True(t, started.Equal(*out.StartedAt))
	assert.Nil(t, out.FinishedAt)
	assert.Equal(t, g.GameState.StakeQuestionData, out.GameState.StakeQuestionData)
	assert.Equal(t, g.Package, out.Package)
}

func TestCodec_RejectsBrokenRecords(t *testing.T) {
	good, err := EncodeGame(gametest.Game())
	require.NoError(t, err)
	base := func() map[string]string {
		m := make(map[string]string, len(good))
		for k, v := range good {
			m[k] = v.(string)
		}
		return m
	}

	cases := map[string]func(m map[string]string){
		"missing players":  func(m map[string]string) { delete(m, fieldPlayers) },
		"bad max players":  func(m map[string]string) { m[fieldMaxPlayers] = "many" },
		"max players > 16": func(m map[string]string) { m[fieldMaxPlayers] = "17" },
		"bad created at":   func(m map[string]string) { m[fieldCreatedAt] = "yesterday" },
		"broken state":     func(m map[string]string) { m[fieldGameState] = "{" },
		"bad player role":  func(m map[string]string) { m[fieldPlayers] = `[{"id":1,"role":"judge","gameStatus":"in_game"}]` },
		"empty title":      func(m map[string]string) { m[fieldTitle] = "" },
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			m := base()
			breakIt(m)
			_, err := DecodeGame(m)
			assert.ErrorIs(t, err, ErrCorruptGame)
		})
	}
}

func TestStore_PrefetchAndWrite(t *testing.T) {
	s, mr, _ := newStore(t)
	ctx := context.Background()
	g := gametest.Game()

	snap, err := s.Prefetch(ctx, g.ID, "sock-1")
	require.NoError(t, err)
	assert.Nil(t, snap.Game)
	assert.Nil(t, snap.Session)
	assert.Zero(t, snap.TimerTTL)

	err = s.Write(ctx, func(w *Writer) error {
		if err := w.SaveGame(g); err != nil {
			return err
		}
		w.DeleteTimer(g.ID)
		w.SetTimer(g.ID, 30*time.Second)
		w.UpdateSession("sock-1", 1, g.ID)
		w.IncrStats(g.ID, 1, 1, 0, 10)
		return nil
	})
	require.NoError(t, err)

	snap, err = s.Prefetch(ctx, g.ID, "sock-1")
	require.NoError(t, err)
	require.NotNil(t, snap.Game)
	assert.Equal(t, g.Title, snap.Game.Title)
	assert.Equal(t, 30*time.Second, snap.TimerTTL)
	require.NotNil(t, snap.Session)
	assert.Equal(t, int64(1), snap.Session.UserID)
	assert.Equal(t, g.ID, snap.Session.GameID)

	assert.Equal(t, 24*time.Hour, mr.TTL(GameKey(g.ID)))
	members, err := mr.ZMembers(IndexPublic)
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, members)
	assert.False(t, mr.Exists(IndexActive))

	stats, err := s.GameStats(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, &PlayerStats{PlayerID: 1, Correct: 1, ScoreDelta: 10}, stats[1])

	require.NoError(t, s.Write(ctx, func(w *Writer) error {
		w.UpdateSession("sock-1", 1, "")
		return nil
	}))
	assert.False(t, mr.Exists(SocketKey("sock-1")))
}

func TestStore_FailedWriteSendsNothing(t *testing.T) {
	s, mr, _ := newStore(t)
	g := gametest.Game()
	g.Title = ""

	err := s.Write(context.Background(), func(w *Writer) error {
		w.SetTimer(g.ID, time.Second)
		return w.SaveGame(g)
	})
	require.Error(t, err)
	assert.False(t, mr.Exists(TimerKey(g.ID)))
}

func TestStore_IndexesFollowLifecycle(t *testing.T) {
	s, mr, _ := newStore(t)
	ctx := context.Background()
	g := gametest.Game()
	require.NoError(t, s.SaveGame(ctx, g))

	now := gametest.Now
	g.StartedAt = &now
	require.NoError(t, s.SaveGame(ctx, g))
	active, _ := mr.ZMembers(IndexActive)
	assert.Equal(t, []string{g.ID}, active)

	g.FinishedAt = &now
	require.NoError(t, s.SaveGame(ctx, g))
	assert.False(t, mr.Exists(IndexActive))
	assert.False(t, mr.Exists(IndexPublic))

	list, err := s.ListGames(ctx, IndexCreated, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsFinished())

	require.NoError(t, s.Forget(ctx, g.ID))
	assert.False(t, mr.Exists(IndexCreated))
}

func TestStore_SweepIndexesDropsExpiredGames(t *testing.T) {
	s, mr, _ := newStore(t)
	ctx := context.Background()
	g := gametest.Game()
	require.NoError(t, s.SaveGame(ctx, g))

	n, err := s.SweepIndexes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	mr.FastForward(25 * time.Hour)
	n, err = s.SweepIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(IndexCreated))
}

func TestParseKey(t *testing.T) {
	kind, id := ParseKey("timer:abc")
	assert.Equal(t, KindTimer, kind)
	assert.Equal(t, "abc", id)

	kind, id = ParseKey("game:abc")
	assert.Equal(t, KindGame, kind)
	assert.Equal(t, "abc", id)

	kind, _ = ParseKey("socket:abc")
	assert.Equal(t, KindUnknown, kind)
	kind, _ = ParseKey("game:")
	assert.Equal(t, KindUnknown, kind)
}
