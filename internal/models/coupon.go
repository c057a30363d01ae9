package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountType selects how a coupon's value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether the discount type is known.
func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// Coupon is a discount rule consumed read-only by the order engine, plus one
// usage-counter increment per order it is applied to.
type Coupon struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Code              string          `json:"code" gorm:"uniqueIndex;type:varchar(64)" validate:"required,min=3,max=64"`
	DiscountType      DiscountType    `json:"discount_type" gorm:"type:varchar(16)" validate:"required,oneof=percentage fixed"`
	DiscountValue     decimal.Decimal `json:"discount_value" gorm:"type:numeric"`
	MinOrderValue     decimal.Decimal `json:"min_order_value" gorm:"type:numeric"`
	MaxDiscountAmount decimal.Decimal `json:"max_discount_amount" gorm:"type:numeric"` // zero means uncapped
	ValidFrom         time.Time       `json:"valid_from"`
	ValidUntil        time.Time       `json:"valid_until"`
	UsageLimit        int             `json:"usage_limit"` // zero means unlimited
	UsedCount         int             `json:"used_count"`
	IsActive          bool            `json:"is_active" gorm:"default:true"`
	gorm.Model                        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// NormalizeCode canonicalizes a coupon code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// WithinValidity reports whether the coupon's validity window covers now.
func (c *Coupon) WithinValidity(now time.Time) bool {
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidUntil.IsZero() && now.After(c.ValidUntil) {
		return false
	}
	return true
}

// Exhausted reports whether the usage cap has been reached.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}

// DiscountFor computes the discount the coupon grants on the given subtotal.
// The result is clamped to the subtotal so totals never go negative.
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscountAmount.IsPositive() && discount.GreaterThan(c.MaxDiscountAmount) {
			discount = c.MaxDiscountAmount
		}
	case DiscountFixed:
		discount = c.DiscountValue
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}
