package repositories

import (
	"bazar/internal/models"
)

// ProductRepository defines the interface for product data access.
//
// DecrementStock and RestoreStock are atomic at the store level so concurrent
// orders against the same product never lose updates.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock subtracts qty conditionally: it fails when the product
	// is missing or when remaining stock is below qty.
	DecrementStock(id string, qty int) error
	// RestoreStock adds qty back after a cancellation or rejection.
	RestoreStock(id string, qty int) error
}
