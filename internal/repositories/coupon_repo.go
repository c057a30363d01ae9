package repositories

import (
	"bazar/internal/models"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	// IncrementUsage bumps used_count by one, conditionally on the usage
	// limit not being exhausted, as a single atomic write.
	IncrementUsage(code string) error
}
