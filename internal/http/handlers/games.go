package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OpenQuester/OpenQuester-sub005/internal/http/middleware"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/service"
)

func (h *Handler) CreateGame(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var in service.CreateGameInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.Games.Create(c.Request.Context(), userID, in)
	if err != nil {
		fail(c, err)
		return
	}
	logger.Info("game created", "game_id", g.ID, "user_id", userID, "package_id", in.PackageID)
	c.JSON(http.StatusCreated, service.Summarize(g))
}

// ListGames pages the lobby. scope is "", "active" or "all".
func (h *Handler) ListGames(c *gin.Context) {
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	games, err := h.Games.List(c.Request.Context(), c.Query("scope"), offset, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "offset": offset})
}

func (h *Handler) GetGame(c *gin.Context) {
	g, err := h.Games.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
