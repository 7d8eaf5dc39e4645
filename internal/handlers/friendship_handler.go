package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/services"
)

// FriendshipHandler handles HTTP requests related to friendships
type FriendshipHandler struct {
	friends *services.FriendService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friends *services.FriendService) *FriendshipHandler {
	return &FriendshipHandler{friends: friends}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.GET("", h.GetFriends)
	g.GET("/requests/incoming", h.GetIncomingRequests)
	g.POST("/requests", h.SendFriendRequest)
	g.POST("/requests/by-username", h.SendFriendRequestByUsername)
	g.POST("/requests/:otherUserId/accept", h.AcceptFriendRequest)
	g.POST("/requests/:otherUserId/decline", h.DeclineFriendRequest)
	g.POST("/requests/:otherUserId/cancel", h.CancelFriendRequest)
	g.DELETE("/:friendUserId", h.DeleteFriend)
}

func toFriendshipResponses(meID uint, list []models.Friendship) []models.FriendshipResponse {
	out := make([]models.FriendshipResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse(meID))
	}
	return out
}

func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	list, err := h.friends.ListFriends(c.Request().Context(), meID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toFriendshipResponses(meID, list))
}

func (h *FriendshipHandler) GetIncomingRequests(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	list, err := h.friends.ListIncoming(c.Request().Context(), meID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toFriendshipResponses(meID, list))
}

// SendFriendRequest handles sending a friend request
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req models.CreateFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	f, err := h.friends.SendRequest(c.Request().Context(), meID, req.TargetUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, f.ToResponse(meID))
}

func (h *FriendshipHandler) SendFriendRequestByUsername(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req models.CreateFriendRequestByUsername
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	f, err := h.friends.SendRequestByUsername(c.Request().Context(), meID, req.Username)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, f.ToResponse(meID))
}

func (h *FriendshipHandler) respond(c echo.Context, action func(meID, otherID uint) (*models.Friendship, error)) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	otherID, err := parseIDParam(c, "otherUserId")
	if err != nil {
		return err
	}
	f, err := action(meID, otherID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, f.ToResponse(meID))
}

func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	return h.respond(c, func(meID, otherID uint) (*models.Friendship, error) {
		return h.friends.Accept(c.Request().Context(), meID, otherID)
	})
}

func (h *FriendshipHandler) DeclineFriendRequest(c echo.Context) error {
	return h.respond(c, func(meID, otherID uint) (*models.Friendship, error) {
		return h.friends.Decline(c.Request().Context(), meID, otherID)
	})
}

func (h *FriendshipHandler) CancelFriendRequest(c echo.Context) error {
	return h.respond(c, func(meID, otherID uint) (*models.Friendship, error) {
		return h.friends.Cancel(c.Request().Context(), meID, otherID)
	})
}

// DeleteFriend removes an accepted friend
func (h *FriendshipHandler) DeleteFriend(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	friendID, err := parseIDParam(c, "friendUserId")
	if err != nil {
		return err
	}
	if err := h.friends.Remove(c.Request().Context(), meID, friendID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
