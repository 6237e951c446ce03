package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/gametest"
	"github.com/OpenQuester/OpenQuester-sub005/internal/http/middleware"
	"github.com/OpenQuester/OpenQuester-sub005/internal/service"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type packages map[int64]domain.Package

func (p packages) GetTree(_ context.Context, id int64) (*domain.Package, error) {
	pkg, ok := p[id]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	return &pkg, nil
}

type users map[int64]*domain.User

func (u users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if usr, ok := u[id]; ok {
		return usr, nil
	}
	return nil, domain.ErrUserNotFound
}

type history []domain.GameResult

func (h history) History(_ context.Context, _ int64, _ int) ([]domain.GameResult, error) {
	return h, nil
}

type tokens struct{}

func (tokens) Parse(token string) (int64, error) {
	if token == "u1" {
		return 1, nil
	}
	return 0, errors.New("bad token")
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	games := service.NewGameService(packages{7: gametest.Package()}, store.New(rdb, time.Hour))
	h := NewHandler(games,
		users{1: {ID: 1, Username: "alice", GamesPlayed: 3}},
		history{{GameID: "g0", PlayerID: 1, Role: domain.RolePlayer, FinalScore: 400, Place: 1}},
	)

	r := gin.New()
	auth := middleware.JWT(tokens{})
	r.GET("/me", auth, h.Me)
	r.GET("/games", h.ListGames)
	r.GET("/games/:id", h.GetGame)
	r.POST("/games", auth, h.CreateGame)
	return r
}

func do(r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Authorization", "Bearer u1")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGames_CreateGetList(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/games", gin.H{"title": "Friday", "packageId": 7, "maxPlayers": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created service.GameSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.CreatedBy)
	assert.Equal(t, 4, created.MaxPlayers)

	w = do(r, http.MethodGet, "/games/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/games?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Games []service.GameSummary `json:"games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Games, 1)
	assert.Equal(t, created.ID, list.Games[0].ID)
}

func TestGames_CreateErrors(t *testing.T) {
	r := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/games", gin.H{"packageId": 7}).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/games", gin.H{"title": "x", "packageId": 9}).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/games", gin.H{"title": "x", "packageId": 7, "maxPlayers": 40}).Code)

	w := do(r, http.MethodGet, "/games/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "game_not_found")
}

func TestMe(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Username    string              `json:"username"`
		GamesPlayed int                 `json:"gamesPlayed"`
		History     []domain.GameResult `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.Username)
	assert.Equal(t, 3, body.GamesPlayed)
	require.Len(t, body.History, 1)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	r := gin.New()
	healthy := NewHealthHandler("test", map[string]Pinger{"redis": ok}, func() int { return 2 })
	sick := NewHealthHandler("test", map[string]Pinger{"redis": ok, "database": down}, nil)
	r.GET("/ok", healthy.Readiness)
	r.GET("/sick", sick.Health)
	r.GET("/live", sick.Liveness)

	w := do(r, http.MethodGet, "/ok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Checks["redis"])
	assert.Equal(t, "2", resp.Checks["sockets"])

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/sick", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/live", nil).Code)
}
