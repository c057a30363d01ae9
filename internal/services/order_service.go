package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bazar/internal/apperrors"
	"bazar/internal/models"
	"bazar/internal/repositories"
	"bazar/pkg/geocode"
	"bazar/pkg/payment"
	"bazar/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// activeStatuses are the statuses a transition may start from; the terminal
// statuses are excluded so a finished order can never move again.
var activeStatuses = []models.OrderStatus{models.StatusPending, models.StatusProcessing}

// OrderService owns the order lifecycle: cart-to-order conversion with stock
// reservation, coupon application, payment branching, status transitions,
// cancellation with stock compensation, and delivery tracking.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	couponRepo  repositories.CouponRepository
	cartRepo    repositories.CartRepository
	addressRepo repositories.AddressRepository
	userRepo    repositories.UserRepository
	notifRepo   repositories.NotificationRepository
	gateway     payment.Gateway
	publisher   rabbitmq.Publisher
	currency    string
}

// NewOrderService creates a new OrderService. The publisher may be nil, in
// which case event emission is skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	couponRepo repositories.CouponRepository,
	cartRepo repositories.CartRepository,
	addressRepo repositories.AddressRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	gateway payment.Gateway,
	publisher rabbitmq.Publisher,
	currency string,
) *OrderService {
	if currency == "" {
		currency = "USD"
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		userRepo:    userRepo,
		notifRepo:   notifRepo,
		gateway:     gateway,
		publisher:   publisher,
		currency:    currency,
	}
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	BuyerID           string
	ShippingAddressID string
	PaymentMethod     models.PaymentMethod
	CouponCode        string
	Notes             string
}

// CreateOrder converts the buyer's cart into an order. Pricing and the
// coupon discount are computed before anything is persisted; for online
// payment, the gateway intent is created before persistence so a gateway
// failure leaves no partial order. Stock decrements, cart clearing and the
// confirmation event run after persistence and are best-effort per item.
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if !input.PaymentMethod.Valid() {
		return nil, apperrors.Errorf(apperrors.KindValidation, "unknown payment method %q", input.PaymentMethod)
	}

	cartItems, err := s.cartRepo.GetItems(input.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, apperrors.E(apperrors.KindBusinessRule, "cart is empty")
	}

	address, err := s.addressRepo.GetByID(input.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if address.UserID != input.BuyerID {
		return nil, apperrors.E(apperrors.KindForbidden, "shipping address belongs to another user")
	}

	// Snapshot every cart line against the live catalog.
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(cartItems))
	for _, line := range cartItems {
		product, err := s.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, apperrors.Errorf(apperrors.KindBusinessRule,
				"insufficient stock for %s (requested: %d, available: %d)", product.Name, line.Quantity, product.Stock)
		}
		unitPrice := product.UnitPrice()
		if unitPrice.IsNegative() {
			return nil, apperrors.Errorf(apperrors.KindBusinessRule, "invalid price for %s", product.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			VendorID:  product.VendorID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	total := subtotal
	discount := decimal.Zero
	couponCode := ""
	if input.CouponCode != "" {
		couponCode = models.NormalizeCode(input.CouponCode)
		coupon, err := s.couponRepo.GetByCode(couponCode)
		if err != nil {
			return nil, err
		}
		if !coupon.IsActive {
			return nil, apperrors.Errorf(apperrors.KindNotFound, "coupon %s not found", couponCode)
		}
		if !coupon.WithinValidity(time.Now()) {
			return nil, apperrors.Errorf(apperrors.KindBusinessRule, "coupon %s is not currently valid", couponCode)
		}
		if coupon.Exhausted() {
			return nil, apperrors.Errorf(apperrors.KindBusinessRule, "coupon %s usage limit reached", couponCode)
		}
		if subtotal.LessThan(coupon.MinOrderValue) {
			return nil, apperrors.Errorf(apperrors.KindBusinessRule,
				"order subtotal is below the coupon minimum of %s", coupon.MinOrderValue.String())
		}
		discount = coupon.DiscountFor(subtotal)
		total = subtotal.Sub(discount)
		// The usage counter is bumped with the same conditional guard the
		// lookup checked, so a concurrent checkout cannot blow the cap.
		if err := s.couponRepo.IncrementUsage(couponCode); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		ID:                uuid.New().String(),
		BuyerID:           input.BuyerID,
		Items:             items,
		ShippingAddressID: address.ID,
		TotalPrice:        total,
		Status:            models.StatusPending,
		Payment: models.Payment{
			Method: input.PaymentMethod,
			Status: models.PaymentPending,
		},
		CouponCode:     couponCode,
		DiscountAmount: discount,
		Tracking: models.Tracking{
			DeliveryStatus: models.DeliveryPreparing,
			LastUpdated:    time.Now(),
		},
		Notes: input.Notes,
	}
	if order.Notes != "" {
		order.Notes += "\n"
	}

	// For online payment the gateway intent is mandatory: a failure here
	// aborts checkout before anything is persisted.
	if input.PaymentMethod == models.PaymentOnline {
		if s.gateway == nil {
			return nil, apperrors.E(apperrors.KindUpstream, "payment gateway is not configured")
		}
		receiptID := uuid.New().String()
		ref, err := s.gateway.CreateIntent(total, s.currency, receiptID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindUpstream, "payment gateway rejected the order", err)
		}
		order.Payment.GatewayOrderRef = ref
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	// From here the order is durable. The remaining steps are side effects
	// that are logged per item and never roll the order back.
	for _, item := range order.Items {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Warning: stock decrement failed for order %s, product %s: %v", order.ID, item.ProductID, err)
		}
	}
	if err := s.cartRepo.Clear(input.BuyerID); err != nil {
		log.Printf("Warning: failed to clear cart for buyer %s: %v", input.BuyerID, err)
	}

	s.publishEvent("order.created", map[string]interface{}{
		"order_id": order.ID,
		"buyer_id": order.BuyerID,
		"status":   order.Status,
		"total":    order.TotalPrice.String(),
	})

	return order, nil
}

// GetOrder fetches one order, visible to the buyer who placed it, any vendor
// with a product on it, or an admin.
func (s *OrderService) GetOrder(id string, actor Actor) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !s.canView(order, actor) {
		return nil, apperrors.E(apperrors.KindForbidden, "you do not have access to this order")
	}
	return order, nil
}

// ListOrders returns one page of the caller's orders: the buyer's own, or
// for vendors the orders containing their products.
func (s *OrderService) ListOrders(actor Actor, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if actor.Role == models.RoleVendor {
		return s.orderRepo.ListByVendor(actor.ID, page, limit)
	}
	return s.orderRepo.ListByBuyer(actor.ID, page, limit)
}

// UpdateStatus applies a vendor-driven status transition. Any authenticated
// vendor may call this, not only one with products on the order; cancellation
// is the operation that checks item ownership.
func (s *OrderService) UpdateStatus(orderID string, newStatus models.OrderStatus, actor Actor) error {
	if !newStatus.Valid() {
		return apperrors.Errorf(apperrors.KindValidation, "unknown order status %q", newStatus)
	}
	if actor.Role != models.RoleVendor {
		return apperrors.E(apperrors.KindForbidden, "only vendors may update order status")
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		return apperrors.Errorf(apperrors.KindBusinessRule, "order is already %s", order.Status)
	}
	if err := s.orderRepo.TransitionStatus(orderID, activeStatuses, newStatus); err != nil {
		return err
	}

	s.notifyBuyer(order, fmt.Sprintf("Your order %s is now %s", order.ID, newStatus), "order.status_updated", map[string]interface{}{
		"order_id": order.ID,
		"status":   newStatus,
	})
	return nil
}

// Cancel cancels an order on behalf of its buyer or a vendor with a product
// on it, restoring stock per line item. A delivered order can never be
// cancelled, whatever its status says.
func (s *OrderService) Cancel(orderID string, actor Actor) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	isBuyer := actor.ID == order.BuyerID
	isVendor := actor.Role == models.RoleVendor && order.ContainsVendor(actor.ID)
	if !isBuyer && !isVendor {
		return apperrors.E(apperrors.KindForbidden, "you cannot cancel this order")
	}
	if order.Tracking.DeliveryStatus == models.DeliveryDelivered {
		return apperrors.E(apperrors.KindBusinessRule, "delivered orders cannot be cancelled")
	}
	if order.Status.Terminal() {
		return apperrors.Errorf(apperrors.KindBusinessRule, "order is already %s", order.Status)
	}

	// The conditional transition is the race arbiter: of two concurrent
	// cancel requests only one reaches the compensation steps below.
	if err := s.orderRepo.TransitionStatus(orderID, activeStatuses, models.StatusCancelled); err != nil {
		return err
	}

	note := fmt.Sprintf("Cancelled by %s on %s", actor.Role, time.Now().UTC().Format(time.RFC3339))
	if err := s.orderRepo.AppendNote(orderID, note); err != nil {
		log.Printf("Warning: failed to append cancellation note to order %s: %v", orderID, err)
	}

	s.restoreStock(order)

	s.notifyBuyer(order, fmt.Sprintf("Your order %s was cancelled", order.ID), "order.cancelled", map[string]interface{}{
		"order_id":     order.ID,
		"cancelled_by": actor.Role,
	})
	return nil
}

// VendorAction lets a vendor with a product on a cash-on-delivery order
// accept it (→ processing) or reject it (→ cancelled, payment failed, stock
// restored). Only pending COD orders qualify.
func (s *OrderService) VendorAction(orderID, action string, actor Actor) error {
	if action != "accept" && action != "reject" {
		return apperrors.Errorf(apperrors.KindValidation, "unknown vendor action %q", action)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleVendor || !order.ContainsVendor(actor.ID) {
		return apperrors.E(apperrors.KindForbidden, "none of your products are on this order")
	}
	if order.Payment.Method != models.PaymentCashOnDelivery {
		return apperrors.E(apperrors.KindBusinessRule, "vendor actions apply to cash-on-delivery orders only")
	}
	if order.Status != models.StatusPending {
		return apperrors.Errorf(apperrors.KindBusinessRule, "order is %s, expected pending", order.Status)
	}

	pendingOnly := []models.OrderStatus{models.StatusPending}
	if action == "accept" {
		if err := s.orderRepo.TransitionStatus(orderID, pendingOnly, models.StatusProcessing); err != nil {
			return err
		}
		// Payment stays pending until delivery for COD.
		s.notifyBuyer(order, fmt.Sprintf("Your order %s was accepted", order.ID), "order.accepted", map[string]interface{}{
			"order_id": order.ID,
		})
		return nil
	}

	if err := s.orderRepo.TransitionStatus(orderID, pendingOnly, models.StatusCancelled); err != nil {
		return err
	}
	if err := s.orderRepo.UpdatePayment(orderID, models.PaymentFailed, ""); err != nil {
		log.Printf("Warning: failed to mark payment failed for order %s: %v", orderID, err)
	}
	note := fmt.Sprintf("Cancelled by vendor on %s", time.Now().UTC().Format(time.RFC3339))
	if err := s.orderRepo.AppendNote(orderID, note); err != nil {
		log.Printf("Warning: failed to append rejection note to order %s: %v", orderID, err)
	}
	s.restoreStock(order)

	s.notifyBuyer(order, fmt.Sprintf("Your order %s was rejected", order.ID), "order.rejected", map[string]interface{}{
		"order_id": order.ID,
	})
	return nil
}

// ConfirmPayment verifies an online-gateway payment confirmation submitted
// by the buyer who placed the order. On a valid signature the payment is
// completed and the order advances to processing; on any failure the order
// and its payment are left untouched.
func (s *OrderService) ConfirmPayment(orderID string, actor Actor, gatewayOrderRef, gatewayPaymentRef, signature string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if actor.ID != order.BuyerID {
		return apperrors.E(apperrors.KindForbidden, "only the buyer may confirm payment")
	}
	if order.Payment.Method != models.PaymentOnline {
		return apperrors.E(apperrors.KindBusinessRule, "order was not placed with online payment")
	}
	if gatewayOrderRef != order.Payment.GatewayOrderRef {
		return apperrors.E(apperrors.KindValidation, "gateway order reference does not match")
	}
	if s.gateway == nil {
		return apperrors.E(apperrors.KindUpstream, "payment gateway is not configured")
	}
	if !s.gateway.VerifySignature(gatewayOrderRef, gatewayPaymentRef, signature) {
		return apperrors.E(apperrors.KindBusinessRule, "invalid payment signature")
	}

	pendingOnly := []models.OrderStatus{models.StatusPending}
	if err := s.orderRepo.TransitionStatus(orderID, pendingOnly, models.StatusProcessing); err != nil {
		return err
	}
	if err := s.orderRepo.UpdatePayment(orderID, models.PaymentCompleted, gatewayPaymentRef); err != nil {
		return fmt.Errorf("failed to record payment completion for order %s: %w", orderID, err)
	}

	s.notifyBuyer(order, fmt.Sprintf("Payment received for order %s", order.ID), "order.paid", map[string]interface{}{
		"order_id":    order.ID,
		"payment_ref": gatewayPaymentRef,
	})
	return nil
}

// GetTracking returns the delivery tracking of an order. When no
// route-provided distance exists, a straight-line distance between the
// courier position and the shipping address is computed as a fallback.
func (s *OrderService) GetTracking(orderID string, actor Actor) (*models.Tracking, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !s.canView(order, actor) {
		return nil, apperrors.E(apperrors.KindForbidden, "you do not have access to this order")
	}

	tracking := order.Tracking
	if tracking.DistanceMeters == 0 && tracking.HasLocation() {
		address, err := s.addressRepo.GetByID(order.ShippingAddressID)
		if err == nil && address.HasCoordinates() {
			tracking.DistanceMeters = geocode.Haversine(
				tracking.Latitude, tracking.Longitude,
				address.Latitude, address.Longitude)
		}
	}
	return &tracking, nil
}

// TrackingUpdateInput is a vendor-side tracking update.
type TrackingUpdateInput struct {
	Latitude       float64
	Longitude      float64
	DeliveryStatus models.DeliveryStatus
	ETA            string
	DistanceMeters float64
	Route          string
}

// UpdateTracking replaces the tracking sub-resource of an order. Only a
// vendor with a product on the order may write it; tracking moves
// independently of the order's own status.
func (s *OrderService) UpdateTracking(orderID string, actor Actor, input TrackingUpdateInput) error {
	if !input.DeliveryStatus.Valid() {
		return apperrors.Errorf(apperrors.KindValidation, "unknown delivery status %q", input.DeliveryStatus)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleVendor || !order.ContainsVendor(actor.ID) {
		return apperrors.E(apperrors.KindForbidden, "none of your products are on this order")
	}

	tracking := models.Tracking{
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		DeliveryStatus: input.DeliveryStatus,
		ETA:            input.ETA,
		DistanceMeters: input.DistanceMeters,
		Route:          input.Route,
		LastUpdated:    time.Now(),
	}
	if err := s.orderRepo.UpdateTracking(orderID, tracking); err != nil {
		return err
	}

	s.publishEvent("order.tracking_updated", map[string]interface{}{
		"order_id":        order.ID,
		"delivery_status": input.DeliveryStatus,
	})
	return nil
}

// VendorStats returns the per-product sales aggregation for a vendor,
// computed by the store.
func (s *OrderService) VendorStats(vendorID string) ([]models.VendorStat, error) {
	return s.orderRepo.VendorStats(vendorID)
}

// FindUnreconciled lists orders whose stock decrement was never matched by a
// payment completion or a terminal state within maxAge. These need manual or
// batch compensation.
func (s *OrderService) FindUnreconciled(maxAge time.Duration) ([]models.Order, error) {
	return s.orderRepo.FindUnreconciled(time.Now().Add(-maxAge))
}

// ListNotifications returns a user's in-app notifications.
func (s *OrderService) ListNotifications(userID string) ([]models.InAppNotification, error) {
	return s.notifRepo.ListByUser(userID)
}

func (s *OrderService) canView(order *models.Order, actor Actor) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.ID == order.BuyerID {
		return true
	}
	return actor.Role == models.RoleVendor && order.ContainsVendor(actor.ID)
}

// restoreStock adds every line item's quantity back to the catalog. A
// vanished product is skipped; other failures are logged per item so one bad
// line never blocks the rest of the compensation.
func (s *OrderService) restoreStock(order *models.Order) {
	for _, item := range order.Items {
		if err := s.productRepo.RestoreStock(item.ProductID, item.Quantity); err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				log.Printf("Skipping stock restore for order %s: product %s no longer exists", order.ID, item.ProductID)
				continue
			}
			log.Printf("Warning: stock restore failed for order %s, product %s: %v", order.ID, item.ProductID, err)
		}
	}
}

// notifyBuyer appends an in-app record for the buyer and, if they opted in
// to email, emits the event the notification sink turns into mail. Both are
// best-effort.
func (s *OrderService) notifyBuyer(order *models.Order, message, routingKey string, payload map[string]interface{}) {
	if s.notifRepo != nil {
		err := s.notifRepo.Append(&models.InAppNotification{
			UserID:  order.BuyerID,
			OrderID: order.ID,
			Message: message,
		})
		if err != nil {
			log.Printf("Warning: failed to append in-app notification for order %s: %v", order.ID, err)
		}
	}

	emailOptIn := true
	if s.userRepo != nil {
		buyer, err := s.userRepo.GetByID(order.BuyerID)
		if err != nil {
			log.Printf("Warning: failed to load buyer %s for notification: %v", order.BuyerID, err)
		} else {
			emailOptIn = buyer.EmailOptIn
		}
	}
	if emailOptIn {
		payload["buyer_id"] = order.BuyerID
		payload["message"] = message
		s.publishEvent(routingKey, payload)
	}
}

// publishEvent emits one best-effort JSON event; failures are logged and
// never propagate to the caller.
func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(rabbitmq.Exchange, routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
