package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/service"
)

// Drives a running server through create, join and start with two users.
// Users and the package come from create_test_user.
func main() {
	showmanID := flag.Int64("showman", 0, "showman user id")
	playerID := flag.Int64("player", 0, "player user id")
	packageID := flag.Int64("package", 0, "package id")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(logger.Options{Level: "debug"})
	defer logger.Sync()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	if *showmanID == 0 || *playerID == 0 || *packageID == 0 {
		logger.Fatal("-showman, -player and -package are required")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	tokens := service.NewTokens(secret, time.Hour)
	showmanToken, err := tokens.Generate(*showmanID)
	if err != nil {
		logger.Fatal("gen showman token", "error", err)
	}
	playerToken, err := tokens.Generate(*playerID)
	if err != nil {
		logger.Fatal("gen player token", "error", err)
	}

	gameID := createGame(base, showmanToken, *packageID)
	logger.Info("game created", "game_id", gameID)

	showman := dial(base, showmanToken)
	defer showman.Close()
	player := dial(base, playerToken)
	defer player.Close()

	send(showman, "join", gameID, map[string]any{"role": "showman"})
	drain(showman, "showman")
	send(player, "join", gameID, map[string]any{"role": "player"})
	drain(player, "player")
	drain(showman, "showman")

	send(showman, "start", gameID, nil)
	drain(showman, "showman")
	drain(player, "player")

	logger.Info("smoke test finished")
}

func createGame(base, token string, packageID int64) string {
	body, _ := json.Marshal(map[string]any{"title": "Smoke", "packageId": packageID})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/games", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("create game", "error", err)
	}
	defer res.Body.Close()

	var out struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&out)
	if res.StatusCode != http.StatusCreated {
		logger.Fatal("create game rejected", "status", res.StatusCode, "error", out.Error)
	}
	return out.ID
}

func dial(base, token string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", base, token), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	return conn
}

func send(conn *websocket.Conn, event, gameID string, data any) {
	frame := map[string]any{"event": event, "gameId": gameID, "requestId": event}
	if data != nil {
		frame["data"] = data
	}
	if err := conn.WriteJSON(frame); err != nil {
		logger.Fatal("write", "event", event, "error", err)
	}
}

// drain prints frames until the socket goes quiet.
func drain(conn *websocket.Conn, name string) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		logger.Info("frame", "socket", name, "body", string(msg))
	}
}
