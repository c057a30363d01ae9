package repositories

import (
	"sync"

	"bazar/internal/apperrors"
	"bazar/internal/models"

	"github.com/google/uuid"
)

// MockCouponRepository is an in-memory implementation of CouponRepository.
type MockCouponRepository struct {
	coupons map[string]models.Coupon // keyed by normalized code
	mu      sync.RWMutex
}

// NewMockCouponRepository creates a new instance of MockCouponRepository.
func NewMockCouponRepository() *MockCouponRepository {
	return &MockCouponRepository{
		coupons: make(map[string]models.Coupon),
	}
}

// GetByCode returns a coupon by its normalized code.
func (r *MockCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coupon, ok := r.coupons[models.NormalizeCode(code)]
	if !ok {
		return nil, apperrors.Errorf(apperrors.KindNotFound, "coupon %s not found", models.NormalizeCode(code))
	}
	return &coupon, nil
}

// Create adds a new coupon.
func (r *MockCouponRepository) Create(coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	coupon.Code = models.NormalizeCode(coupon.Code)
	r.coupons[coupon.Code] = *coupon
	return nil
}

// IncrementUsage bumps used_count under the same guard the store enforces.
func (r *MockCouponRepository) IncrementUsage(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = models.NormalizeCode(code)
	coupon, ok := r.coupons[code]
	if !ok {
		return apperrors.Errorf(apperrors.KindNotFound, "coupon %s not found", code)
	}
	if !coupon.IsActive || coupon.Exhausted() {
		return apperrors.Errorf(apperrors.KindBusinessRule, "coupon %s is inactive or its usage limit is reached", code)
	}
	coupon.UsedCount++
	r.coupons[code] = coupon
	return nil
}
