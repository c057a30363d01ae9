package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is permitted.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentMethod selects how an order is paid for.
type PaymentMethod string

const (
	PaymentOnline         PaymentMethod = "online"
	PaymentCashOnDelivery PaymentMethod = "cod"
)

// Valid reports whether the payment method is known.
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCashOnDelivery
}

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// DeliveryStatus is the courier-side state of an order, independent of the
// order's own status.
type DeliveryStatus string

const (
	DeliveryPreparing      DeliveryStatus = "preparing"
	DeliveryReadyForPickup DeliveryStatus = "ready_for_pickup"
	DeliveryInTransit      DeliveryStatus = "in_transit"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

// Valid reports whether the delivery status is known.
func (d DeliveryStatus) Valid() bool {
	switch d {
	case DeliveryPreparing, DeliveryReadyForPickup, DeliveryInTransit, DeliveryDelivered:
		return true
	}
	return false
}

// OrderItem is one product line frozen at order-creation time. Quantity and
// unit price are a point-in-time snapshot and never track catalog changes.
type OrderItem struct {
	ID        uint            `json:"-" gorm:"primaryKey"`
	OrderID   string          `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36)"`
	VendorID  string          `json:"vendor_id" gorm:"index;type:varchar(36)"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric"` // price at the time of order
}

// Payment holds the payment-method branch of an order.
type Payment struct {
	Method            PaymentMethod `json:"method" gorm:"type:varchar(16)"`
	Status            PaymentStatus `json:"status" gorm:"type:varchar(16)"`
	GatewayOrderRef   string        `json:"gateway_order_ref,omitempty" gorm:"type:varchar(64)"`
	GatewayPaymentRef string        `json:"gateway_payment_ref,omitempty" gorm:"type:varchar(64)"`
}

// Tracking is the delivery sub-resource of an order, mutated only by the
// vendor side and readable by the buyer.
type Tracking struct {
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" gorm:"type:varchar(24);default:preparing"`
	ETA            string         `json:"eta,omitempty" gorm:"type:varchar(64)"`
	DistanceMeters float64        `json:"distance_meters,omitempty"`
	Route          string         `json:"route,omitempty" gorm:"type:varchar(255)"`
	LastUpdated    time.Time      `json:"last_updated"`
}

// HasLocation reports whether a courier position has been recorded.
func (t Tracking) HasLocation() bool {
	return t.Latitude != 0 || t.Longitude != 0
}

// Order is the aggregate root of the order engine.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID           string          `json:"buyer_id" gorm:"index;type:varchar(36)"`
	Items             []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingAddressID string          `json:"shipping_address_id" gorm:"type:varchar(36)"`
	TotalPrice        decimal.Decimal `json:"total_price" gorm:"type:numeric"`
	Status            OrderStatus     `json:"status" gorm:"type:varchar(16);index"`
	Payment           Payment         `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	CouponCode        string          `json:"coupon_code,omitempty" gorm:"type:varchar(64)"`
	DiscountAmount    decimal.Decimal `json:"discount_amount" gorm:"type:numeric"`
	Tracking          Tracking        `json:"tracking" gorm:"embedded;embeddedPrefix:tracking_"`
	Notes             string          `json:"notes,omitempty"` // append-only audit lines
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ContainsVendor reports whether any line item belongs to the given vendor.
func (o *Order) ContainsVendor(vendorID string) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// VendorStat is one row of the per-vendor sales aggregation.
type VendorStat struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}
