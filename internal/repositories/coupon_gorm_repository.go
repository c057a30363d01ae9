package repositories

import (
	"errors"
	"fmt"

	"bazar/internal/apperrors"
	"bazar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCouponRepository is a GORM implementation of CouponRepository.
type GORMCouponRepository struct {
	db *gorm.DB
}

// NewGORMCouponRepository creates a new instance of GORMCouponRepository.
func NewGORMCouponRepository(db *gorm.DB) *GORMCouponRepository {
	return &GORMCouponRepository{
		db: db,
	}
}

// GetByCode retrieves a coupon by its normalized code.
func (r *GORMCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	code = models.NormalizeCode(code)
	if err := r.db.First(&coupon, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "coupon %s not found", code)
		}
		return nil, fmt.Errorf("failed to get coupon %s: %w", code, err)
	}
	return &coupon, nil
}

// Create creates a new coupon in the database.
func (r *GORMCouponRepository) Create(coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	coupon.Code = models.NormalizeCode(coupon.Code)
	if err := r.db.Create(coupon).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// IncrementUsage bumps used_count by one. The usage-limit guard runs inside
// the UPDATE so the cap holds under concurrent checkouts.
func (r *GORMCouponRepository) IncrementUsage(code string) error {
	code = models.NormalizeCode(code)
	res := r.db.Model(&models.Coupon{}).
		Where("code = ? AND is_active = ? AND (usage_limit = 0 OR used_count < usage_limit)", code, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment usage for coupon %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByCode(code); err != nil {
			return err
		}
		return apperrors.Errorf(apperrors.KindBusinessRule, "coupon %s is inactive or its usage limit is reached", code)
	}
	return nil
}
