package repositories

import (
	"bazar/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetItems(userID string) ([]models.CartItem, error)
	// Upsert adds the item or replaces the quantity of an existing line.
	Upsert(item *models.CartItem) error
	Remove(userID, productID string) error
	Clear(userID string) error
}
