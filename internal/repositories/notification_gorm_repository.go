package repositories

import (
	"fmt"

	"bazar/internal/models"

	"gorm.io/gorm"
)

// GORMNotificationRepository is a GORM implementation of
// NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of
// GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{
		db: db,
	}
}

// Append stores one in-app notification record.
func (r *GORMNotificationRepository) Append(notification *models.InAppNotification) error {
	if err := r.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (r *GORMNotificationRepository) ListByUser(userID string) ([]models.InAppNotification, error) {
	var notifications []models.InAppNotification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}
