package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/me", h.GetProfile)
	g.PUT("/me/fcm-token", h.UpdateFCMToken)
	g.GET("/search", h.SearchUsers)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateFCMToken stores the device token used for push notifications
func (h *UserHandler) UpdateFCMToken(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req models.UpdateFCMTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return toHTTPError(err)
	}
	user.FCMToken = req.FCMToken
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers finds other users by username
func (h *UserHandler) SearchUsers(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, limit+1)
	if err != nil {
		return toHTTPError(err)
	}
	results := make([]models.UserCompact, 0, len(users))
	for i := range users {
		if users[i].ID == userID {
			continue
		}
		if len(results) == limit {
			break
		}
		results = append(results, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, results)
}
