package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"bazar/internal/apperrors"
	"bazar/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	return &order, nil
}

// ListByBuyer returns one page of a buyer's orders, newest first.
func (r *MockOrderRepository) ListByBuyer(buyerID string, page, limit int) ([]models.Order, int64, error) {
	return r.list(func(o models.Order) bool { return o.BuyerID == buyerID }, page, limit)
}

// ListByVendor returns one page of the orders containing the vendor's items.
func (r *MockOrderRepository) ListByVendor(vendorID string, page, limit int) ([]models.Order, int64, error) {
	return r.list(func(o models.Order) bool { return o.ContainsVendor(vendorID) }, page, limit)
}

func (r *MockOrderRepository) list(match func(models.Order) bool, page, limit int) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []models.Order
	for _, order := range r.orders {
		if match(order) {
			all = append(all, order)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// TransitionStatus applies the same conditional-write semantics as the store.
func (r *MockOrderRepository) TransitionStatus(id string, from []models.OrderStatus, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	for _, status := range from {
		if order.Status == status {
			order.Status = to
			order.UpdatedAt = time.Now()
			r.orders[id] = order
			return nil
		}
	}
	return apperrors.Errorf(apperrors.KindBusinessRule, "order %s is not in a state that allows transition to %s", id, to)
}

// UpdatePayment sets the payment status and optional payment reference.
func (r *MockOrderRepository) UpdatePayment(id string, status models.PaymentStatus, paymentRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	order.Payment.Status = status
	if paymentRef != "" {
		order.Payment.GatewayPaymentRef = paymentRef
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// UpdateTracking replaces the order's tracking sub-resource.
func (r *MockOrderRepository) UpdateTracking(id string, tracking models.Tracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	order.Tracking = tracking
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// AppendNote appends one audit line to the order's notes.
func (r *MockOrderRepository) AppendNote(id string, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return apperrors.Errorf(apperrors.KindNotFound, "order with ID %s not found", id)
	}
	order.Notes += note + "\n"
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// VendorStats aggregates units sold and revenue per product for a vendor.
func (r *MockOrderRepository) VendorStats(vendorID string) ([]models.VendorStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProduct := make(map[string]*models.VendorStat)
	for _, order := range r.orders {
		if order.Status == models.StatusCancelled {
			continue
		}
		for _, item := range order.Items {
			if item.VendorID != vendorID {
				continue
			}
			stat, ok := byProduct[item.ProductID]
			if !ok {
				stat = &models.VendorStat{ProductID: item.ProductID, Revenue: decimal.Zero}
				byProduct[item.ProductID] = stat
			}
			stat.UnitsSold += item.Quantity
			stat.Revenue = stat.Revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	stats := make([]models.VendorStat, 0, len(byProduct))
	for _, stat := range byProduct {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return strings.Compare(stats[i].ProductID, stats[j].ProductID) < 0
	})
	return stats, nil
}

// FindUnreconciled lists online-payment orders still pending past the cutoff.
func (r *MockOrderRepository) FindUnreconciled(olderThan time.Time) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.Status == models.StatusPending &&
			order.Payment.Method == models.PaymentOnline &&
			order.Payment.Status == models.PaymentPending &&
			order.CreatedAt.Before(olderThan) {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}
