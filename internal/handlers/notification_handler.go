package handlers

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("", h.GetNotifications)
	g.GET("/unread-count", h.GetUnreadCount)
	g.PUT("/read-all", h.MarkAllAsRead)
	g.PUT("/:id/read", h.MarkAsRead)
}

// EnrichedNotification includes actor info. System notifications have no actor.
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]*models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if n.ActorID == 0 {
			continue
		}
		actor, ok := userCache[n.ActorID]
		if !ok {
			if user, err := h.userRepository.GetUserByID(c.Request().Context(), n.ActorID); err == nil {
				compact := user.ToCompact()
				actor = &compact
			}
			userCache[n.ActorID] = actor
		}
		enriched[i].Actor = actor
	}
	return enriched
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c, 20, 50)

	notifications, total, err := h.notificationRepository.GetByRecipientID(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return toHTTPError(err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": h.enrichNotifications(c, notifications),
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	notifID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), currentUserID, notifID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
