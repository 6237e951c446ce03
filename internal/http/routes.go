package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenQuester/OpenQuester-sub005/internal/http/handlers"
	"github.com/OpenQuester/OpenQuester-sub005/internal/http/middleware"
	"github.com/OpenQuester/OpenQuester-sub005/internal/ws"
)

// Limits are the per-window request budgets.
type Limits struct {
	API       int
	APIWindow time.Duration
	// WS bounds socket upgrades per client address per minute.
	WS int
	// Create bounds game creation per user per minute.
	Create int
}

type Deps struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Gateway       *ws.Gateway
	Tokens        middleware.TokenParser
	Limiter       *middleware.RateLimiter
	Limits        Limits
	AllowedOrigin string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler
	auth := middleware.JWT(d.Tokens)

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(d.Limiter.ByIP(d.Limits.API, d.Limits.APIWindow))
	{
		v1.GET("/me", auth, h.Me)

		v1.GET("/games", h.ListGames)
		v1.GET("/games/:id", h.GetGame)
		v1.POST("/games", auth, d.Limiter.ByUser("create", d.Limits.Create, time.Minute), h.CreateGame)
	}

	// Game sockets
	r.GET("/ws", d.Limiter.ByIP(d.Limits.WS, time.Minute), auth, handlers.WS(d.Gateway, d.AllowedOrigin))
}
