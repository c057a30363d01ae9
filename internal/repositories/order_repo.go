package repositories

import (
	"time"

	"bazar/internal/models"
)

// OrderRepository defines the interface for order data access.
//
// TransitionStatus performs the final state change as a single conditional
// write so two concurrent requests cannot both win a transition that is only
// valid once (double-cancel, double-accept).
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	ListByBuyer(buyerID string, page, limit int) ([]models.Order, int64, error)
	ListByVendor(vendorID string, page, limit int) ([]models.Order, int64, error)
	// TransitionStatus moves the order to the given status only if its current
	// status is one of from. A no-op write surfaces as a business-rule error.
	TransitionStatus(id string, from []models.OrderStatus, to models.OrderStatus) error
	UpdatePayment(id string, status models.PaymentStatus, paymentRef string) error
	UpdateTracking(id string, tracking models.Tracking) error
	// AppendNote appends one audit line to the order's notes.
	AppendNote(id string, note string) error
	// VendorStats aggregates units sold and revenue per product for a vendor,
	// pushed down to the store as a GROUP BY rather than scanned in memory.
	VendorStats(vendorID string) ([]models.VendorStat, error)
	// FindUnreconciled lists online-payment orders still pending past the
	// cutoff: stock was decremented but no terminal state ever matched it.
	FindUnreconciled(olderThan time.Time) ([]models.Order, error)
}
