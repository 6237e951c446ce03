package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	JWTTTL        time.Duration
	AllowedOrigin string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// RedisNotifyConfig lets the listener enable keyspace notifications itself.
	// Managed Redis usually forbids CONFIG SET.
	RedisNotifyConfig bool

	LogLevel string
	LogJSON  bool
	LogFile  string

	GameTTL       time.Duration
	ExpirationTTL time.Duration
	GameLockTTL   time.Duration
	StaleSweep    time.Duration

	// Rate limits
	APIRateLimit  int
	APIRateWindow time.Duration
	WSRateLimit   int
	CreateLimit   int

	ScoreBound           int64
	QuestionTime         time.Duration
	AnswerTime           time.Duration
	ShowAnswerTime       time.Duration
	BiddingTime          time.Duration
	SecretTransferTime   time.Duration
	FinalEliminationTime time.Duration
	FinalBidTime         time.Duration
	FinalAnswerTime      time.Duration
}

// Load reads the environment, with .env as an optional source.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	defaults := domain.DefaultRules()

	return &Config{
		AppPort:       port,
		DatabaseURL:   dbURL,
		JWTSecret:     jwtSecret,
		JWTTTL:        envDuration("JWT_TTL_HOURS", time.Hour, 24*time.Hour),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		RedisAddr:         redisAddr,
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envInt("REDIS_DB", 0),
		RedisNotifyConfig: os.Getenv("REDIS_NOTIFY_CONFIG") != "false",

		LogLevel: envString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
		LogFile:  os.Getenv("LOG_FILE"),

		GameTTL:       envDuration("GAME_TTL_SECONDS", time.Second, 24*time.Hour),
		ExpirationTTL: envDuration("EXPIRATION_LOCK_MS", time.Millisecond, 5*time.Second),
		GameLockTTL:   envDuration("GAME_LOCK_MS", time.Millisecond, 5*time.Second),
		StaleSweep:    envDuration("STALE_SWEEP_MINUTES", time.Minute, 10*time.Minute),

		APIRateLimit:  envInt("API_RATE_LIMIT", 60),
		APIRateWindow: envDuration("API_RATE_WINDOW_SECONDS", time.Second, time.Minute),
		WSRateLimit:   envInt("WS_RATE_LIMIT", 20),
		CreateLimit:   envInt("GAME_CREATE_LIMIT", 10),

		ScoreBound:           int64(envInt("SCORE_BOUND", int(defaults.ScoreBound))),
		QuestionTime:         envDuration("QUESTION_TIME_SECONDS", time.Second, defaults.QuestionTime),
		AnswerTime:           envDuration("ANSWER_TIME_SECONDS", time.Second, defaults.AnswerTime),
		ShowAnswerTime:       envDuration("SHOW_ANSWER_SECONDS", time.Second, defaults.ShowAnswerTime),
		BiddingTime:          envDuration("BIDDING_TIME_SECONDS", time.Second, defaults.BiddingTime),
		SecretTransferTime:   envDuration("SECRET_TRANSFER_SECONDS", time.Second, defaults.SecretTransferTime),
		FinalEliminationTime: envDuration("FINAL_ELIMINATION_SECONDS", time.Second, defaults.FinalEliminationTime),
		FinalBidTime:         envDuration("FINAL_BID_SECONDS", time.Second, defaults.FinalBidTime),
		FinalAnswerTime:      envDuration("FINAL_ANSWER_SECONDS", time.Second, defaults.FinalAnswerTime),
	}
}

// Rules builds the per-server game rules.
func (c *Config) Rules() domain.Rules {
	r := domain.DefaultRules()
	r.ScoreBound = c.ScoreBound
	r.QuestionTime = c.QuestionTime
	r.AnswerTime = c.AnswerTime
	r.ShowAnswerTime = c.ShowAnswerTime
	r.BiddingTime = c.BiddingTime
	r.SecretTransferTime = c.SecretTransferTime
	r.FinalEliminationTime = c.FinalEliminationTime
	r.FinalBidTime = c.FinalBidTime
	r.FinalAnswerTime = c.FinalAnswerTime
	return r
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("config: ignoring bad value", "key", key, "value", v)
	}
	return def
}

// envDuration reads a positive integer count of unit.
func envDuration(key string, unit, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * unit
		}
		logger.Warn("config: ignoring bad value", "key", key, "value", v)
	}
	return def
}
