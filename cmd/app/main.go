package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/OpenQuester/OpenQuester-sub005/internal/action/handlers"
	"github.com/OpenQuester/OpenQuester-sub005/internal/config"
	"github.com/OpenQuester/OpenQuester-sub005/internal/db"
	"github.com/OpenQuester/OpenQuester-sub005/internal/engine"
	"github.com/OpenQuester/OpenQuester-sub005/internal/expiration"
	httpServer "github.com/OpenQuester/OpenQuester-sub005/internal/http"
	httpHandlers "github.com/OpenQuester/OpenQuester-sub005/internal/http/handlers"
	"github.com/OpenQuester/OpenQuester-sub005/internal/http/middleware"
	"github.com/OpenQuester/OpenQuester-sub005/internal/jobs"
	"github.com/OpenQuester/OpenQuester-sub005/internal/lock"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/repository"
	"github.com/OpenQuester/OpenQuester-sub005/internal/round"
	"github.com/OpenQuester/OpenQuester-sub005/internal/service"
	"github.com/OpenQuester/OpenQuester-sub005/internal/store"
	"github.com/OpenQuester/OpenQuester-sub005/internal/ws"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, File: cfg.LogFile})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer dbPool.Close()

	rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis unavailable", "error", err)
	}
	defer rdb.Close()

	// Persistence
	games := store.New(rdb, cfg.GameTTL)
	locker := lock.NewLocker(rdb)
	users := repository.NewUserRepository(dbPool)
	stats := repository.NewStatisticsRepository(dbPool)
	packages := repository.NewPackageRepository(dbPool)

	// Engine
	hub := ws.NewHub(rdb)
	lifecycle := service.NewGameLifecycle(games, stats)
	processor := engine.NewProcessor(games, hub, lifecycle)
	executor := engine.NewExecutor(games, locker, handlers.NewRegistry(round.NewResolver()), processor, hub, engine.Config{
		Rules:   cfg.Rules(),
		LockTTL: cfg.GameLockTTL,
	})

	expirations := expiration.NewListener(rdb, expiration.NewHandler(locker, executor, games, cfg.ExpirationTTL), cfg.RedisDB)
	expirations.Configure = cfg.RedisNotifyConfig

	gateway := &ws.Gateway{
		Hub:      hub,
		Exec:     executor,
		Leaver:   service.NewLobbyLeaver(executor, games),
		Sessions: games,
		Users:    users,
		BaseCtx:  ctx,
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: httpHandlers.NewHandler(service.NewGameService(packages, games), users, stats),
		Health: httpHandlers.NewHealthHandler(version, map[string]httpHandlers.Pinger{
			"database": dbPool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, hub.SocketCount),
		Gateway: gateway,
		Tokens:  service.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Limiter: middleware.NewRateLimiter(rdb),
		Limits: httpServer.Limits{
			API:       cfg.APIRateLimit,
			APIWindow: cfg.APIRateWindow,
			WS:        cfg.WSRateLimit,
			Create:    cfg.CreateLimit,
		},
		AllowedOrigin: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return expirations.Run(gctx) })
	g.Go(func() error { return hub.RunRelay(gctx) })
	g.Go(func() error { return jobs.Every(gctx, cfg.StaleSweep, jobs.StaleIndexes(games)) })
	g.Go(func() error { return jobs.Every(gctx, cfg.StaleSweep, jobs.WithLogging("empty_rooms", hub.SweepRooms)) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", "error", err)
		return
	}
	logger.Info("server exited")
}
