package repositories

import (
	"bazar/internal/models"
)

// NotificationRepository defines the interface for in-app notification
// records. Append-only: notifications are never updated or deleted.
type NotificationRepository interface {
	Append(notification *models.InAppNotification) error
	ListByUser(userID string) ([]models.InAppNotification, error)
}
