package repositories

import (
	"bazar/internal/models"
)

// AddressRepository defines the interface for shipping-address data access.
type AddressRepository interface {
	GetByID(id string) (*models.Address, error)
	ListByUser(userID string) ([]models.Address, error)
	Create(address *models.Address) error
}
