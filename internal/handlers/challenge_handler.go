package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/services"
	"github.com/thelittlethings/backend/pkg/challenge"
)

// ChallengeHandler exposes the friend challenge lifecycle
type ChallengeHandler struct {
	challenges *services.ChallengeService
}

func NewChallengeHandler(challenges *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// RegisterChallengeRoutes registers challenge routes on the friends group
func (h *ChallengeHandler) RegisterChallengeRoutes(g *echo.Group) {
	g.POST("/challenges", h.CreateChallenge)
	g.GET("/challenges/mine", h.GetMyChallenges)
	g.GET("/challenges/proposed", h.GetProposedChallenges)
	g.GET("/challenges/:id/events", h.GetChallengeEvents)
	g.POST("/challenges/:id/accept", h.transition(challenge.ActionAccept))
	g.POST("/challenges/:id/decline", h.transition(challenge.ActionDecline))
	g.POST("/challenges/:id/request-complete", h.transition(challenge.ActionRequestComplete))
	g.POST("/challenges/:id/confirm-complete", h.transition(challenge.ActionConfirmComplete))
	g.POST("/challenges/:id/reject-complete", h.transition(challenge.ActionRejectComplete))
	g.POST("/challenges/:id/complete", h.transition(challenge.ActionComplete))
}

func (h *ChallengeHandler) CreateChallenge(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req challenge.CreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := h.challenges.Create(c.Request().Context(), meID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *ChallengeHandler) GetMyChallenges(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	list, err := h.challenges.ListMine(c.Request().Context(), meID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ChallengeHandler) GetProposedChallenges(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	list, err := h.challenges.ListProposedTo(c.Request().Context(), meID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ChallengeHandler) GetChallengeEvents(c echo.Context) error {
	meID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	events, err := h.challenges.Events(c.Request().Context(), meID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, events)
}

// transition builds the handler for one lifecycle action. The direct
// complete action takes the winner from ?winnerUserId=.
func (h *ChallengeHandler) transition(action challenge.Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		meID, err := requireUserID(c)
		if err != nil {
			return err
		}
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var winnerID uint
		if action == challenge.ActionComplete {
			raw := c.QueryParam("winnerUserId")
			if raw == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "winnerUserId is required")
			}
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || v == 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid winnerUserId")
			}
			winnerID = uint(v)
		}

		updated, err := h.challenges.Transition(c.Request().Context(), meID, id, action, winnerID)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusOK, updated)
	}
}
