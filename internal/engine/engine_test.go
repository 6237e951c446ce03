package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action"
	"github.com/OpenQuester/OpenQuester-sub005/internal/action/handlers"
	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/gametest"
	"github.com/OpenQuester/OpenQuester-sub005/internal/lock"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

type sink struct {
	mu   sync.Mutex
	envs []*Envelope
}

func (s *sink) Deliver(_ context.Context, env *Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
	return nil
}

func (s *sink) events() []action.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]action.Event, 0, len(s.envs))
	for _, e := range s.envs {
		out = append(out, e.Event)
	}
	return out
}

func (s *sink) find(ev action.Event) *Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.envs {
		if e.Event == ev {
			return e
		}
	}
	return nil
}

type lifecycle struct {
	mu    sync.Mutex
	games []string
	err   error
}

func (l *lifecycle) Complete(_ context.Context, gameID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.games = append(l.games, gameID)
	return l.err
}

type failingStore struct{}

func (failingStore) Write(context.Context, func(w *store.Writer) error) error {
	return errors.New("connection reset")
}

type fixture struct {
	mr    *miniredis.Miniredis
	store *store.Store
	out   *sink
	lc    *lifecycle
	exec  *Executor
	lock  *lock.Locker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := store.New(rdb, 24*time.Hour)
	out := &sink{}
	lc := &lifecycle{}
	locker := lock.NewLocker(rdb)
	proc := NewProcessor(st, out, lc)
	exec := NewExecutor(st, locker, handlers.NewRegistry(round.NewResolver()), proc, out, Config{
		Rules:    domain.DefaultRules(),
		LockWait: 50 * time.Millisecond,
		Clock:    func() time.Time { return gametest.Now },
	})
	return &fixture{mr: mr, store: st, out: out, lc: lc, exec: exec, lock: locker}
}

// seed stores the lobby fixture and binds a socket for every participant.
func (f *fixture) seed(t *testing.T) *domain.Game {
	t.Helper()
	g := gametest.Game()
	require.NoError(t, f.store.Write(context.Background(), func(w *store.Writer) error {
		for _, p := range g.Players {
			w.UpdateSession(socketOf(p.ID), p.ID, g.ID)
		}
		return w.SaveGame(g)
	}))
	return g
}

func socketOf(id int64) string {
	return "sock-" + string(rune('a'+id))
}

func (f *fixture) do(t *testing.T, typ action.Type, playerID int64, payload any) error {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	_, err := f.exec.Execute(context.Background(), action.New(typ, gametest.GameID, playerID, socketOf(playerID), raw, gametest.Now))
	return err
}

func TestExecute_StartPersistsAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	require.NoError(t, f.do(t, action.TypeStart, gametest.ShowmanID, nil))

	g, err := f.store.LoadGame(context.Background(), gametest.GameID)
	require.NoError(t, err)
	assert.True(t, g.IsStarted())
	assert.Contains(t, f.out.events(), action.EventGameStarted)
	assert.Contains(t, f.out.events(), action.EventRoundStarted)
	assert.False(t, f.mr.Exists(lock.GameKey(gametest.GameID)))
}

func TestExecute_ClientErrorGoesToSocketOnly(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	err := f.do(t, action.TypeStart, 1, nil)
	require.ErrorIs(t, err, domain.ErrShowmanOnly)

	require.Len(t, f.out.envs, 1)
	env := f.out.envs[0]
	assert.Equal(t, action.EventError, env.Event)
	assert.Equal(t, socketOf(1), env.SocketID)
	assert.Empty(t, env.Room)
	assert.Contains(t, string(env.Data), `"code":"showman_only"`)

	g, err := f.store.LoadGame(context.Background(), gametest.GameID)
	require.NoError(t, err)
	assert.False(t, g.IsStarted())
}

func TestExecute_RequirementOrder(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.do(t, action.TypeQuestionPick, 1, nil), domain.ErrGameNotFound)

	g := f.seed(t)
	assert.ErrorIs(t, f.do(t, action.TypeQuestionPick, 99, nil), domain.ErrNotInGame)
	assert.ErrorIs(t, f.do(t, action.TypePause, 1, nil), domain.ErrShowmanOnly)
	assert.ErrorIs(t, f.do(t, action.TypeQuestionPick, 1, nil), domain.ErrGameNotStarted)

	require.NoError(t, f.do(t, action.TypeStart, gametest.ShowmanID, nil))
	require.NoError(t, f.do(t, action.TypePause, gametest.ShowmanID, nil))
	assert.ErrorIs(t, f.do(t, action.TypeQuestionPick, 1, action.QuestionPickPayload{QuestionID: gametest.QSimple}), domain.ErrGamePaused)

	now := gametest.Now
	g, err := f.store.LoadGame(context.Background(), g.ID)
	require.NoError(t, err)
	g.FinishedAt = &now
	require.NoError(t, f.store.SaveGame(context.Background(), g))
	assert.ErrorIs(t, f.do(t, action.TypePlayerReady, 1, nil), domain.ErrGameFinished)
}

func TestExecute_UnboundSocketIsNotAMember(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	_, err := f.exec.Execute(context.Background(),
		action.New(action.TypeStart, gametest.GameID, gametest.ShowmanID, "other-tab", nil, gametest.Now))
	assert.ErrorIs(t, err, domain.ErrNotInGame)
}

func TestExecute_QuestionDataIsFilteredPerRecipient(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	require.NoError(t, f.do(t, action.TypeStart, gametest.ShowmanID, nil))
	require.NoError(t, f.do(t, action.TypeQuestionPick, 1, action.QuestionPickPayload{QuestionID: gametest.QSimple}))

	env := f.out.find(action.EventQuestionData)
	require.NotNil(t, env)
	assert.NotContains(t, string(env.Data), "1066")

	showman, ok := env.PayloadFor(gametest.ShowmanID)
	require.True(t, ok)
	assert.Contains(t, string(showman), "1066")

	player, ok := env.PayloadFor(2)
	require.True(t, ok)
	assert.NotContains(t, string(player), "1066")

	assert.Equal(t, 60*time.Second, f.mr.TTL(store.TimerKey(gametest.GameID)))
}

func TestExecute_BusyGameIsRejected(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	held, err := f.lock.Acquire(context.Background(), lock.GameKey(gametest.GameID), time.Minute)
	require.NoError(t, err)
	defer func() { _ = held.Release(context.Background()) }()

	assert.ErrorIs(t, f.do(t, action.TypeStart, gametest.ShowmanID, nil), domain.ErrBusy)
}

func TestExecute_SystemTimerActionReportsNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	_, err := f.exec.Execute(context.Background(),
		action.New(action.TypeTimerExpired, gametest.GameID, action.SystemPlayerID, "", nil, gametest.Now))
	require.NoError(t, err)
	assert.Empty(t, f.out.envs)
}

func TestExecute_DisconnectResolvesGameFromSession(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	_, err := f.exec.Execute(context.Background(),
		action.New(action.TypeDisconnect, "", 2, socketOf(2), nil, gametest.Now))
	require.NoError(t, err)

	g, err := f.store.LoadGame(context.Background(), gametest.GameID)
	require.NoError(t, err)
	_, still := g.Player(2)
	assert.False(t, still)
	assert.False(t, f.mr.Exists(store.SocketKey(socketOf(2))))
}

type finisher struct{}

func (finisher) Type() action.Type { return action.TypeNextRound }
func (finisher) Requirements() action.Requirements { return action.Requirements{Game: true} }
func (finisher) Handle(ec *action.ExecutionContext) (action.Result, []action.Mutation, error) {
	return action.Result{}, action.NewBatch(ec.Game).Complete().Mutations(), nil
}

type onlyHandler struct{ h action.Handler }

func (r onlyHandler) Get(action.Type) (action.Handler, bool) { return r.h, true }

// lockedDuring records whether the game lock was held while completing.
type lockedDuring struct {
	mr     *miniredis.Miniredis
	locked []bool
}

func (l *lockedDuring) Complete(_ context.Context, gameID string) error {
	l.locked = append(l.locked, l.mr.Exists(lock.GameKey(gameID)))
	return nil
}

func TestExecute_CompletesAfterReleasingGameLock(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	lc := &lockedDuring{mr: f.mr}
	exec := NewExecutor(f.store, f.lock, onlyHandler{finisher{}}, NewProcessor(f.store, f.out, lc), f.out, Config{
		Rules: domain.DefaultRules(),
		Clock: func() time.Time { return gametest.Now },
	})

	_, err := exec.Execute(context.Background(),
		action.New(action.TypeNextRound, gametest.GameID, gametest.ShowmanID, socketOf(gametest.ShowmanID), nil, gametest.Now))
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, lc.locked)
}

func TestApply_PersistenceFailureAbortsLaterStages(t *testing.T) {
	out := &sink{}
	lc := &lifecycle{}
	p := NewProcessor(failingStore{}, out, lc)
	g := gametest.Game()

	b := action.NewBatch(g)
	b.Save().Emit(action.EventGameFinished, nil).Complete()

	err := p.Apply(context.Background(), b.Mutations(), g)
	require.Error(t, err)
	assert.Empty(t, out.envs)
	assert.Empty(t, lc.games)
}

func TestApply_CompletionFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	f.lc.err = errors.New("postgres down")
	g := gametest.Game()

	b := action.NewBatch(g)
	b.Save().Emit(action.EventGameFinished, map[string]any{"gameId": g.ID}).Complete()

	p := NewProcessor(f.store, f.out, f.lc)
	require.NoError(t, p.Apply(context.Background(), b.Mutations(), nil))
	assert.Equal(t, []string{g.ID}, f.lc.games)
	assert.Equal(t, []action.Event{action.EventGameFinished}, f.out.events())
}

func TestApply_SnapshotPrefersExplicitGameThenSaved(t *testing.T) {
	out := &sink{}
	f := newFixture(t)
	p := NewProcessor(f.store, out, nil)

	fallback := gametest.Game()
	saved := gametest.Game()
	saved.Players = saved.Players[:1]
	explicit := gametest.Game()
	explicit.Players = nil

	seen := func(g *domain.Game, _ *domain.Player) (any, bool) { return len(g.Players), true }
	muts := []action.Mutation{
		action.SaveGame{Game: saved},
		action.Broadcast{Event: "a", Room: saved.ID, Filter: seen},
		action.Broadcast{Event: "b", Room: saved.ID, Filter: seen, Game: explicit},
	}
	require.NoError(t, p.Apply(context.Background(), muts, fallback))
	require.Len(t, out.envs, 2)
	assert.JSONEq(t, "1", string(out.envs[0].Data))
	assert.JSONEq(t, "0", string(out.envs[1].Data))
}

func TestSeal_SkipAndMembersOnly(t *testing.T) {
	g := gametest.Game()
	onlyPlayers := func(_ *domain.Game, r *domain.Player) (any, bool) {
		if r == nil || r.Role != domain.RolePlayer {
			return nil, false
		}
		return map[string]int64{"you": r.ID}, true
	}
	env, err := Seal(action.Broadcast{Event: "x", Room: g.ID, Filter: onlyPlayers}, g)
	require.NoError(t, err)

	assert.True(t, env.MembersOnly)
	_, ok := env.PayloadFor(gametest.ShowmanID)
	assert.False(t, ok)
	_, ok = env.PayloadFor(777)
	assert.False(t, ok)
	data, ok := env.PayloadFor(3)
	require.True(t, ok)
	assert.JSONEq(t, `{"you":3}`, string(data))
}
