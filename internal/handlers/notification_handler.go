package handlers

import (
	"bazar/internal/middleware"
	"bazar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler serves the caller's in-app notifications.
type NotificationHandler struct {
	service *services.OrderService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.OrderService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

// RegisterRoutes registers the notification routes with the Fiber app.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/notifications", h.HandleListNotifications)
}

// HandleListNotifications returns the caller's in-app notifications, newest
// first.
func (h *NotificationHandler) HandleListNotifications(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	notifications, err := h.service.ListNotifications(actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, notifications)
}
