package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OpenQuester/OpenQuester-sub005/internal/domain"
	"github.com/OpenQuester/OpenQuester-sub005/internal/logger"
	"github.com/OpenQuester/OpenQuester-sub005/internal/service"
)

// UserReader loads profiles.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// HistoryReader loads finished game results of a user.
type HistoryReader interface {
	History(ctx context.Context, userID int64, limit int) ([]domain.GameResult, error)
}

type Handler struct {
	Games *service.GameService
	Users UserReader
	Stats HistoryReader
}

func NewHandler(games *service.GameService, users UserReader, stats HistoryReader) *Handler {
	return &Handler{Games: games, Users: users, Stats: stats}
}

// fail writes err as JSON. Client errors keep their code; anything else is
// logged and hidden.
func fail(c *gin.Context, err error) {
	if ce, ok := domain.AsClientError(err); ok {
		status := http.StatusBadRequest
		switch ce {
		case domain.ErrGameNotFound, domain.ErrPackageNotFound, domain.ErrUserNotFound:
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": ce.Message, "code": ce.Code})
		return
	}
	if errors.Is(err, service.ErrInvalidMaxPlayers) || errors.Is(err, service.ErrEmptyPackage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.Error("http: request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
