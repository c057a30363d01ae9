package models

import "time"

// InAppNotification is an append-only message shown to a user inside the app.
// It is written regardless of the user's email preference.
type InAppNotification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;type:varchar(36)"`
	OrderID   string    `json:"order_id" gorm:"type:varchar(36)"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
