package models

import "time"

// CartItem is one product line in a buyer's cart. The order engine only
// reads and clears carts; cart contents carry no invariants of their own.
type CartItem struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index:idx_cart_user_product,unique;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"index:idx_cart_user_product,unique;type:varchar(36)" validate:"required,uuid"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
