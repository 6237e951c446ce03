package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenQuester/OpenQuester-sub005/internal/http/middleware"
)

const historyLimit = 20

// Me returns the caller with their latest finished games.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		fail(c, err)
		return
	}
	history, err := h.Stats.History(ctx, userID, historyLimit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"gamesPlayed": user.GamesPlayed,
		"createdAt":   user.CreatedAt,
		"history":     history,
	})
}
