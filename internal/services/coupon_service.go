package services

import (
	"bazar/internal/apperrors"
	"bazar/internal/models"
	"bazar/internal/repositories"
)

// CouponService handles the admin/vendor-facing coupon tooling. The order
// engine itself consumes coupons read-only through the repository.
type CouponService struct {
	couponRepo repositories.CouponRepository
}

// NewCouponService creates a new CouponService.
func NewCouponService(couponRepo repositories.CouponRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
	}
}

// CreateCoupon stores a new coupon rule.
func (s *CouponService) CreateCoupon(coupon *models.Coupon) error {
	if !coupon.DiscountType.Valid() {
		return apperrors.Errorf(apperrors.KindValidation, "unknown discount type %q", coupon.DiscountType)
	}
	if !coupon.DiscountValue.IsPositive() {
		return apperrors.E(apperrors.KindValidation, "discount value must be positive")
	}
	if !coupon.ValidFrom.IsZero() && !coupon.ValidUntil.IsZero() && coupon.ValidUntil.Before(coupon.ValidFrom) {
		return apperrors.E(apperrors.KindValidation, "validity window ends before it starts")
	}
	return s.couponRepo.Create(coupon)
}

// GetCoupon returns a coupon by code.
func (s *CouponService) GetCoupon(code string) (*models.Coupon, error) {
	return s.couponRepo.GetByCode(code)
}
