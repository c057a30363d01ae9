package services

import (
	"bazar/internal/apperrors"
	"bazar/internal/models"
	"bazar/internal/repositories"
)

// CartService handles business logic for buyer carts. The order engine only
// reads and clears carts; carts themselves carry no pricing invariants.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns all cart lines of a user.
func (s *CartService) GetCart(userID string) ([]models.CartItem, error) {
	return s.cartRepo.GetItems(userID)
}

// AddItem adds a product to the cart or replaces the quantity of an existing
// line. The product must exist; stock is only verified at checkout.
func (s *CartService) AddItem(userID, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.E(apperrors.KindValidation, "quantity must be at least 1")
	}
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return err
	}
	return s.cartRepo.Upsert(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// RemoveItem removes one product line from the cart.
func (s *CartService) RemoveItem(userID, productID string) error {
	return s.cartRepo.Remove(userID, productID)
}
