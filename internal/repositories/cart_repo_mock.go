package repositories

import (
	"sync"
	"time"

	"bazar/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	items map[string][]models.CartItem // keyed by user ID
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		items: make(map[string][]models.CartItem),
	}
}

// GetItems returns all cart lines of a user.
func (r *MockCartRepository) GetItems(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.CartItem, len(r.items[userID]))
	copy(items, r.items[userID])
	return items, nil
}

// Upsert adds the item or replaces the quantity of an existing line.
func (r *MockCartRepository) Upsert(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.UpdatedAt = time.Now()
	lines := r.items[item.UserID]
	for i := range lines {
		if lines[i].ProductID == item.ProductID {
			lines[i].Quantity = item.Quantity
			lines[i].UpdatedAt = item.UpdatedAt
			return nil
		}
	}
	item.CreatedAt = time.Now()
	r.items[item.UserID] = append(lines, *item)
	return nil
}

// Remove deletes one product line from a user's cart.
func (r *MockCartRepository) Remove(userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.items[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			r.items[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

// Clear empties a user's cart.
func (r *MockCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, userID)
	return nil
}
