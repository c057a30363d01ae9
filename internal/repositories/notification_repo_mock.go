package repositories

import (
	"sync"
	"time"

	"bazar/internal/models"
)

// MockNotificationRepository is an in-memory implementation of
// NotificationRepository.
type MockNotificationRepository struct {
	notifications []models.InAppNotification
	mu            sync.RWMutex
}

// NewMockNotificationRepository creates a new instance of
// MockNotificationRepository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

// Append stores one in-app notification record.
func (r *MockNotificationRepository) Append(notification *models.InAppNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	notification.ID = uint(len(r.notifications) + 1)
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *notification)
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *MockNotificationRepository) ListByUser(userID string) ([]models.InAppNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.InAppNotification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			out = append(out, r.notifications[i])
		}
	}
	return out, nil
}
