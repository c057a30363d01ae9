package services

import (
	"bazar/internal/apperrors"
	"bazar/internal/models"
	"bazar/internal/repositories"
)

// ProductService handles business logic for the vendor-owned catalog.
type ProductService struct {
	productRepo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// CreateProduct creates a new product owned by the given vendor.
func (s *ProductService) CreateProduct(vendorID string, product *models.Product) error {
	if product.Price.IsNegative() {
		return apperrors.E(apperrors.KindValidation, "price must not be negative")
	}
	if product.DiscountPct.IsNegative() || product.DiscountPct.GreaterThan(hundred) {
		return apperrors.E(apperrors.KindValidation, "discount must be between 0 and 100")
	}
	product.VendorID = vendorID
	return s.productRepo.Create(product)
}

// UpdateProduct updates an existing product after an ownership check.
func (s *ProductService) UpdateProduct(actor Actor, product *models.Product) error {
	existing, err := s.productRepo.GetByID(product.ID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin && existing.VendorID != actor.ID {
		return apperrors.E(apperrors.KindForbidden, "product belongs to another vendor")
	}
	product.VendorID = existing.VendorID
	return s.productRepo.Update(product)
}

// DeleteProduct deletes a product after an ownership check.
func (s *ProductService) DeleteProduct(actor Actor, id string) error {
	existing, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin && existing.VendorID != actor.ID {
		return apperrors.E(apperrors.KindForbidden, "product belongs to another vendor")
	}
	return s.productRepo.Delete(id)
}
