package handlers

import (
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
)

type LeaderboardHandler struct {
	userRepository repositories.UserRepository
}

func NewLeaderboardHandler(userRepo repositories.UserRepository) *LeaderboardHandler {
	return &LeaderboardHandler{userRepository: userRepo}
}

func (h *LeaderboardHandler) RegisterLeaderboardRoutes(g *echo.Group) {
	g.GET("/leaderboard", h.GetLeaderboard)
}

// GetLeaderboard returns users ranked by trophies, optionally for one region
func (h *LeaderboardHandler) GetLeaderboard(c echo.Context) error {
	page, size := pageParams(c, 10, 100)
	region := strings.TrimSpace(c.QueryParam("region"))

	users, total, err := h.userRepository.Leaderboard(c.Request().Context(), region, page, size)
	if err != nil {
		return toHTTPError(err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			UserID:   u.ID,
			Username: u.Username,
			Region:   u.Region,
			Trophies: u.Trophies,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"entries":    entries,
		"page":       page,
		"size":       size,
		"total":      total,
		"totalPages": int(math.Ceil(float64(total) / float64(size))),
	})
}
