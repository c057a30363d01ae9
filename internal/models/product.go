package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item owned by a vendor.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	VendorID    string          `json:"vendor_id" gorm:"index;type:varchar(36)"`
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric"`
	DiscountPct decimal.Decimal `json:"discount_pct" gorm:"type:numeric"` // catalog discount, percent of price
	Stock       int             `json:"stock" validate:"gte=0"`
	gorm.Model                  // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// UnitPrice is the effective price of one unit after the catalog discount.
func (p *Product) UnitPrice() decimal.Decimal {
	pct := p.DiscountPct.Div(decimal.NewFromInt(100))
	return p.Price.Mul(decimal.NewFromInt(1).Sub(pct))
}
