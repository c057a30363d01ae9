package repositories

import (
	"errors"
	"fmt"
	"time"

	"bazar/internal/apperrors"
	"bazar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order together with its line items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with its line items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByBuyer returns one page of a buyer's orders, newest first, plus the
// total count.
func (r *GORMOrderRepository) ListByBuyer(buyerID string, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.Model(&models.Order{}).Where("buyer_id = ?", buyerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders for buyer %s: %w", buyerID, err)
	}
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders for buyer %s: %w", buyerID, err)
	}
	return orders, total, nil
}

// ListByVendor returns one page of the orders containing at least one of the
// vendor's products, newest first, plus the total count.
func (r *GORMOrderRepository) ListByVendor(vendorID string, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	sub := r.db.Model(&models.OrderItem{}).
		Select("order_id").
		Where("vendor_id = ?", vendorID)

	query := r.db.Model(&models.Order{}).Where("id IN (?)", sub)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders for vendor %s: %w", vendorID, err)
	}
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders for vendor %s: %w", vendorID, err)
	}
	return orders, total, nil
}

// TransitionStatus moves the order to a new status in a single conditional
// UPDATE keyed on the expected current statuses. Exactly one of two racing
// requests can win.
func (r *GORMOrderRepository) TransitionStatus(id string, from []models.OrderStatus, to models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to transition order %s to %s: %w", id, to, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return apperrors.Errorf(apperrors.KindBusinessRule, "order %s is not in a state that allows transition to %s", id, to)
	}
	return nil
}

// UpdatePayment sets the payment status and, when given, the gateway
// payment reference.
func (r *GORMOrderRepository) UpdatePayment(id string, status models.PaymentStatus, paymentRef string) error {
	updates := map[string]interface{}{
		"payment_status": status,
	}
	if paymentRef != "" {
		updates["payment_gateway_payment_ref"] = paymentRef
	}
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	return nil
}

// UpdateTracking replaces the order's tracking sub-resource.
func (r *GORMOrderRepository) UpdateTracking(id string, tracking models.Tracking) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"tracking_latitude":        tracking.Latitude,
		"tracking_longitude":       tracking.Longitude,
		"tracking_delivery_status": tracking.DeliveryStatus,
		"tracking_eta":             tracking.ETA,
		"tracking_distance_meters": tracking.DistanceMeters,
		"tracking_route":           tracking.Route,
		"tracking_last_updated":    tracking.LastUpdated,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update tracking for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	return nil
}

// AppendNote appends one audit line to the order's notes column in place.
func (r *GORMOrderRepository) AppendNote(id string, note string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("notes", gorm.Expr("COALESCE(notes, '') || ?", note+"\n"))
	if res.Error != nil {
		return fmt.Errorf("failed to append note to order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	return nil
}

// VendorStats aggregates units sold and revenue per product for a vendor.
// The fold is pushed to the store as a GROUP BY/SUM; cancelled orders are
// excluded.
func (r *GORMOrderRepository) VendorStats(vendorID string) ([]models.VendorStat, error) {
	var stats []models.VendorStat
	err := r.db.Table("order_items").
		Select("order_items.product_id AS product_id, MAX(products.name) AS name, SUM(order_items.quantity) AS units_sold, SUM(order_items.quantity * order_items.unit_price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("order_items.vendor_id = ? AND orders.status <> ?", vendorID, models.StatusCancelled).
		Group("order_items.product_id").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats for vendor %s: %w", vendorID, err)
	}
	return stats, nil
}

// FindUnreconciled lists online-payment orders still pending past the cutoff.
// These had their stock decremented at creation but never reached payment
// completion or a terminal state, so they are candidates for reconciliation.
func (r *GORMOrderRepository) FindUnreconciled(olderThan time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("status = ? AND payment_method = ? AND payment_status = ? AND created_at < ?",
			models.StatusPending, models.PaymentOnline, models.PaymentPending, olderThan).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find unreconciled orders: %w", err)
	}
	return orders, nil
}
