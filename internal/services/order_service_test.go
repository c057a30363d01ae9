package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"bazar/internal/apperrors"
	"bazar/internal/models"
	"bazar/internal/repositories"
	"bazar/internal/services"
	"bazar/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway implements payment.Gateway for tests.
type fakeGateway struct {
	failIntent bool
	secret     string
	intents    int
	lastAmount decimal.Decimal
}

func (g *fakeGateway) CreateIntent(amount decimal.Decimal, currency, receiptID string) (string, error) {
	if g.failIntent {
		return "", errors.New("gateway down")
	}
	g.intents++
	g.lastAmount = amount
	return "gw_order_123", nil
}

func (g *fakeGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return payment.Sign(g.secret, orderRef, paymentRef) == signature
}

// recordingPublisher captures emitted events.
type recordingPublisher struct {
	routingKeys []string
}

func (p *recordingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.routingKeys = append(p.routingKeys, routingKey)
	return nil
}

// stubUserRepo is a minimal UserRepository for notification-preference tests.
type stubUserRepo struct {
	users map[string]models.User
}

func (r *stubUserRepo) Create(user *models.User) error { r.users[user.ID] = *user; return nil }
func (r *stubUserRepo) GetByUsername(username string) (*models.User, error) {
	return nil, apperrors.E(apperrors.KindNotFound, "not found")
}
func (r *stubUserRepo) GetByEmail(email string) (*models.User, error) {
	return nil, apperrors.E(apperrors.KindNotFound, "not found")
}
func (r *stubUserRepo) GetByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.E(apperrors.KindNotFound, "not found")
	}
	return &user, nil
}

const (
	buyerID    = "6f1f64e5-0000-4000-8000-000000000001"
	vendorID   = "6f1f64e5-0000-4000-8000-000000000002"
	otherID    = "6f1f64e5-0000-4000-8000-000000000003"
	addressID  = "6f1f64e5-0000-4000-8000-0000000000a1"
	productAID = "6f1f64e5-0000-4000-8000-0000000000p1"
	productBID = "6f1f64e5-0000-4000-8000-0000000000p2"
)

var (
	buyer  = services.Actor{ID: buyerID, Role: models.RoleBuyer}
	vendor = services.Actor{ID: vendorID, Role: models.RoleVendor}
	admin  = services.Actor{ID: otherID, Role: models.RoleAdmin}
)

type orderTestEnv struct {
	service   *services.OrderService
	products  *repositories.MockProductRepository
	orders    *repositories.MockOrderRepository
	coupons   *repositories.MockCouponRepository
	carts     *repositories.MockCartRepository
	notifs    *repositories.MockNotificationRepository
	users     *stubUserRepo
	gateway   *fakeGateway
	publisher *recordingPublisher
}

// newOrderTestEnv wires the order engine against in-memory repositories with
// a seeded catalog: product A at 100 with 10% discount and stock 5, product B
// at 25 with stock 10.
func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()

	env := &orderTestEnv{
		products:  repositories.NewMockProductRepository(),
		orders:    repositories.NewMockOrderRepository(),
		coupons:   repositories.NewMockCouponRepository(),
		carts:     repositories.NewMockCartRepository(),
		notifs:    repositories.NewMockNotificationRepository(),
		users:     &stubUserRepo{users: make(map[string]models.User)},
		gateway:   &fakeGateway{secret: "test_secret"},
		publisher: &recordingPublisher{},
	}
	addresses := repositories.NewMockAddressRepository()

	require.NoError(t, env.products.Create(&models.Product{
		ID: productAID, VendorID: vendorID, Name: "Walnut Chess Set",
		Price: decimal.NewFromInt(100), DiscountPct: decimal.NewFromInt(10), Stock: 5,
	}))
	require.NoError(t, env.products.Create(&models.Product{
		ID: productBID, VendorID: vendorID, Name: "Travel Board",
		Price: decimal.NewFromInt(25), Stock: 10,
	}))
	require.NoError(t, addresses.Create(&models.Address{
		ID: addressID, UserID: buyerID, Street: "1 Harbor Rd", City: "Lisbon", Country: "Portugal",
		Latitude: 38.7223, Longitude: -9.1393,
	}))
	env.users.users[buyerID] = models.User{ID: buyerID, Username: "ana", EmailOptIn: true}

	env.service = services.NewOrderService(
		env.orders, env.products, env.coupons, env.carts, addresses,
		env.users, env.notifs, env.gateway, env.publisher, "USD")
	return env
}

func (env *orderTestEnv) fillCart(t *testing.T, productID string, qty int) {
	t.Helper()
	require.NoError(t, env.carts.Upsert(&models.CartItem{UserID: buyerID, ProductID: productID, Quantity: qty}))
}

func (env *orderTestEnv) checkoutCOD(t *testing.T) *models.Order {
	t.Helper()
	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
	})
	require.NoError(t, err)
	return order
}

func stockOf(t *testing.T, env *orderTestEnv, productID string) int {
	t.Helper()
	product, err := env.products.GetByID(productID)
	require.NoError(t, err)
	return product.Stock
}

func TestCreateOrder_PricingAndStock(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)

	order := env.checkoutCOD(t)

	// unitPrice = 100 * (1 - 10/100) = 90, total = 180
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(180)), "total = %s", order.TotalPrice)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, vendorID, order.Items[0].VendorID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.Payment.Status)
	assert.Equal(t, models.DeliveryPreparing, order.Tracking.DeliveryStatus)

	assert.Equal(t, 3, stockOf(t, env, productAID))

	cart, err := env.carts.GetItems(buyerID)
	require.NoError(t, err)
	assert.Empty(t, cart, "cart should be cleared after checkout")

	assert.Contains(t, env.publisher.routingKeys, "order.created")
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	env := newOrderTestEnv(t)

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
	assert.Equal(t, 5, stockOf(t, env, productAID))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 6)

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
	assert.Equal(t, 5, stockOf(t, env, productAID))

	cart, err := env.carts.GetItems(buyerID)
	require.NoError(t, err)
	assert.Len(t, cart, 1, "cart must be left intact on failure")
}

func TestCreateOrder_ForeignAddressRejected(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           otherID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
	})
	require.Error(t, err)
	// otherID has an empty cart, so seed one line for them first.
	require.NoError(t, env.carts.Upsert(&models.CartItem{UserID: otherID, ProductID: productBID, Quantity: 1}))
	_, err = env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           otherID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func seedCoupon(t *testing.T, env *orderTestEnv, coupon models.Coupon) {
	t.Helper()
	if coupon.ValidFrom.IsZero() {
		coupon.ValidFrom = time.Now().Add(-time.Hour)
	}
	if coupon.ValidUntil.IsZero() {
		coupon.ValidUntil = time.Now().Add(time.Hour)
	}
	require.NoError(t, env.coupons.Create(&coupon))
}

func TestCreateOrder_FixedCoupon(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	seedCoupon(t, env, models.Coupon{
		Code: "SAVE20", DiscountType: models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(20), MinOrderValue: decimal.NewFromInt(100),
		IsActive: true,
	})

	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
		CouponCode:        "save20",
	})
	require.NoError(t, err)

	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(160)), "total = %s", order.TotalPrice)
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "SAVE20", order.CouponCode)

	coupon, err := env.coupons.GetByCode("SAVE20")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestCreateOrder_PercentageCouponCapped(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2) // subtotal 180
	seedCoupon(t, env, models.Coupon{
		Code: "HALF", DiscountType: models.DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(50),
		MaxDiscountAmount: decimal.NewFromInt(30),
		IsActive:          true,
	})

	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
		CouponCode:        "HALF",
	})
	require.NoError(t, err)
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(30)), "discount = %s", order.DiscountAmount)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(150)))
}

func TestCreateOrder_CouponMinimumNotMet(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productBID, 1) // subtotal 25
	seedCoupon(t, env, models.Coupon{
		Code: "BIG", DiscountType: models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(20), MinOrderValue: decimal.NewFromInt(100),
		IsActive: true,
	})

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
		CouponCode:        "BIG",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))

	coupon, err := env.coupons.GetByCode("BIG")
	require.NoError(t, err)
	assert.Equal(t, 0, coupon.UsedCount, "usage must not be counted on a rejected coupon")
	assert.Equal(t, 10, stockOf(t, env, productBID))
}

func TestCreateOrder_InactiveCouponNotFound(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	seedCoupon(t, env, models.Coupon{
		Code: "OLD", DiscountType: models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(5), IsActive: false,
	})

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
		CouponCode:        "OLD",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCreateOrder_ExpiredCouponRejected(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	seedCoupon(t, env, models.Coupon{
		Code: "PAST", DiscountType: models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(5), IsActive: true,
		ValidFrom: time.Now().Add(-2 * time.Hour), ValidUntil: time.Now().Add(-time.Hour),
	})

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
		CouponCode:        "PAST",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
}

func TestCreateOrder_GatewayFailureAbortsBeforePersist(t *testing.T) {
	env := newOrderTestEnv(t)
	env.gateway.failIntent = true
	env.fillCart(t, productAID, 2)

	_, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))

	orders, _, listErr := env.orders.ListByBuyer(buyerID, 1, 10)
	require.NoError(t, listErr)
	assert.Empty(t, orders, "no partial order may be persisted")
	assert.Equal(t, 5, stockOf(t, env, productAID))

	cart, err := env.carts.GetItems(buyerID)
	require.NoError(t, err)
	assert.Len(t, cart, 1)
}

func TestCreateOrder_OnlineStoresGatewayRef(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)

	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.NoError(t, err)
	assert.Equal(t, "gw_order_123", order.Payment.GatewayOrderRef)
	assert.Equal(t, 1, env.gateway.intents)
	assert.True(t, env.gateway.lastAmount.Equal(decimal.NewFromInt(180)))
}

func TestCancel_RestoresStockSymmetrically(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	env.fillCart(t, productBID, 3)
	order := env.checkoutCOD(t)
	assert.Equal(t, 3, stockOf(t, env, productAID))
	assert.Equal(t, 7, stockOf(t, env, productBID))

	require.NoError(t, env.service.Cancel(order.ID, buyer))

	updated, err := env.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Contains(t, updated.Notes, "Cancelled by buyer on ")

	// Net stock delta over the order's lifetime is zero.
	assert.Equal(t, 5, stockOf(t, env, productAID))
	assert.Equal(t, 10, stockOf(t, env, productBID))
}

func TestCancel_SkipsVanishedProducts(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	env.fillCart(t, productBID, 3)
	order := env.checkoutCOD(t)

	require.NoError(t, env.products.Delete(productAID))
	require.NoError(t, env.service.Cancel(order.ID, buyer))

	updated, err := env.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, 10, stockOf(t, env, productBID), "surviving products are still restored")
}

func TestCancel_TerminalStatesRejected(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	require.NoError(t, env.orders.TransitionStatus(order.ID, []models.OrderStatus{models.StatusPending}, models.StatusProcessing))
	require.NoError(t, env.orders.TransitionStatus(order.ID, []models.OrderStatus{models.StatusProcessing}, models.StatusCompleted))

	err := env.service.Cancel(order.ID, buyer)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))

	updated, getErr := env.orders.GetByID(order.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, 4, stockOf(t, env, productAID), "stock must not be restored")
}

func TestCancel_DeliveredOrderRejected(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	require.NoError(t, env.orders.UpdateTracking(order.ID, models.Tracking{
		DeliveryStatus: models.DeliveryDelivered,
		LastUpdated:    time.Now(),
	}))

	err := env.service.Cancel(order.ID, buyer)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
}

func TestCancel_VendorMustOwnAnItem(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	err := env.service.Cancel(order.ID, services.Actor{ID: otherID, Role: models.RoleVendor})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.NoError(t, env.service.Cancel(order.ID, vendor))
	updated, getErr := env.orders.GetByID(order.ID)
	require.NoError(t, getErr)
	assert.Contains(t, updated.Notes, "Cancelled by vendor on ")
}

func TestVendorAction_Reject(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	order := env.checkoutCOD(t)

	require.NoError(t, env.service.VendorAction(order.ID, "reject", vendor))

	updated, err := env.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, models.PaymentFailed, updated.Payment.Status)
	assert.Equal(t, 5, stockOf(t, env, productAID), "stock fully restored on reject")
}

func TestVendorAction_Accept(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	order := env.checkoutCOD(t)

	require.NoError(t, env.service.VendorAction(order.ID, "accept", vendor))

	updated, err := env.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.Status)
	assert.Equal(t, models.PaymentPending, updated.Payment.Status, "COD payment stays pending until delivery")
	assert.Equal(t, 3, stockOf(t, env, productAID), "accept must not restore stock")

	// A second action finds the order past pending.
	err = env.service.VendorAction(order.ID, "reject", vendor)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
}

func TestVendorAction_OnlineOrderRejected(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.NoError(t, err)

	err = env.service.VendorAction(order.ID, "accept", vendor)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
}

func TestConfirmPayment_Succeeds(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.NoError(t, err)

	signature := payment.Sign("test_secret", order.Payment.GatewayOrderRef, "pay_42")
	require.NoError(t, env.service.ConfirmPayment(order.ID, buyer, order.Payment.GatewayOrderRef, "pay_42", signature))

	updated, err := env.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.Status)
	assert.Equal(t, models.PaymentCompleted, updated.Payment.Status)
	assert.Equal(t, "pay_42", updated.Payment.GatewayPaymentRef)
}

func TestConfirmPayment_BadSignatureLeavesOrderUntouched(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.NoError(t, err)

	err = env.service.ConfirmPayment(order.ID, buyer, order.Payment.GatewayOrderRef, "pay_42", "forged")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))

	updated, getErr := env.orders.GetByID(order.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, models.PaymentPending, updated.Payment.Status)
	assert.Empty(t, updated.Payment.GatewayPaymentRef)
}

func TestConfirmPayment_RefMismatchAndOwnership(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.NoError(t, err)

	signature := payment.Sign("test_secret", "gw_other", "pay_42")
	err = env.service.ConfirmPayment(order.ID, buyer, "gw_other", "pay_42", signature)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	signature = payment.Sign("test_secret", order.Payment.GatewayOrderRef, "pay_42")
	err = env.service.ConfirmPayment(order.ID, services.Actor{ID: otherID, Role: models.RoleBuyer}, order.Payment.GatewayOrderRef, "pay_42", signature)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestUpdateStatus_VendorOnlyAndTerminalGuard(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	err := env.service.UpdateStatus(order.ID, models.StatusProcessing, buyer)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	err = env.service.UpdateStatus(order.ID, "shipped", vendor)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, env.service.UpdateStatus(order.ID, models.StatusProcessing, vendor))
	require.NoError(t, env.service.UpdateStatus(order.ID, models.StatusCompleted, vendor))

	err = env.service.UpdateStatus(order.ID, models.StatusProcessing, vendor)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
}

func TestUpdateStatus_Notifications(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	require.NoError(t, env.service.UpdateStatus(order.ID, models.StatusProcessing, vendor))
	assert.Contains(t, env.publisher.routingKeys, "order.status_updated")

	notifications, err := env.service.ListNotifications(buyerID)
	require.NoError(t, err)
	require.NotEmpty(t, notifications)
	assert.Contains(t, notifications[0].Message, "is now processing")
}

func TestUpdateStatus_EmailOptOutSuppressesEvent(t *testing.T) {
	env := newOrderTestEnv(t)
	env.users.users[buyerID] = models.User{ID: buyerID, Username: "ana", EmailOptIn: false}
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	before := len(env.publisher.routingKeys)
	require.NoError(t, env.service.UpdateStatus(order.ID, models.StatusProcessing, vendor))

	for _, key := range env.publisher.routingKeys[before:] {
		assert.NotEqual(t, "order.status_updated", key)
	}
	// The in-app record is appended regardless of the email preference.
	notifications, err := env.service.ListNotifications(buyerID)
	require.NoError(t, err)
	assert.NotEmpty(t, notifications)
}

func TestGetOrder_Authorization(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	for _, actor := range []services.Actor{buyer, vendor, admin} {
		got, err := env.service.GetOrder(order.ID, actor)
		require.NoError(t, err, "actor %s", actor.Role)
		assert.Equal(t, order.ID, got.ID)
	}

	_, err := env.service.GetOrder(order.ID, services.Actor{ID: otherID, Role: models.RoleBuyer})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestTracking_UpdateAndHaversineFallback(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order := env.checkoutCOD(t)

	err := env.service.UpdateTracking(order.ID, services.Actor{ID: otherID, Role: models.RoleVendor}, services.TrackingUpdateInput{
		DeliveryStatus: models.DeliveryInTransit,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	err = env.service.UpdateTracking(order.ID, vendor, services.TrackingUpdateInput{
		DeliveryStatus: "flying",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	// Courier in Porto, shipping address in Lisbon: the fallback distance
	// should land around 270-280 km.
	require.NoError(t, env.service.UpdateTracking(order.ID, vendor, services.TrackingUpdateInput{
		Latitude:       41.1579,
		Longitude:      -8.6291,
		DeliveryStatus: models.DeliveryInTransit,
		ETA:            "2h",
	}))

	tracking, err := env.service.GetTracking(order.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryInTransit, tracking.DeliveryStatus)
	assert.InDelta(t, 275000, tracking.DistanceMeters, 15000)

	// A route-provided distance wins over the fallback.
	require.NoError(t, env.service.UpdateTracking(order.ID, vendor, services.TrackingUpdateInput{
		Latitude:       41.1579,
		Longitude:      -8.6291,
		DeliveryStatus: models.DeliveryInTransit,
		DistanceMeters: 313000,
		Route:          "A1 south",
	}))
	tracking, err = env.service.GetTracking(order.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, float64(313000), tracking.DistanceMeters)

	_, err = env.service.GetTracking(order.ID, services.Actor{ID: otherID, Role: models.RoleBuyer})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestListOrders_ByRole(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	env.checkoutCOD(t)
	env.fillCart(t, productBID, 2)
	env.checkoutCOD(t)

	orders, total, err := env.service.ListOrders(buyer, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = env.service.ListOrders(vendor, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 1, "pagination limits the page size")

	_, total, err = env.service.ListOrders(services.Actor{ID: otherID, Role: models.RoleVendor}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestFindUnreconciled(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)
	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentOnline,
	})
	require.NoError(t, err)

	// Fresh orders are not flagged yet.
	stale, err := env.service.FindUnreconciled(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = env.service.FindUnreconciled(-time.Minute)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, order.ID, stale[0].ID)

	// Once payment completes the order leaves the reconciliation set.
	signature := payment.Sign("test_secret", order.Payment.GatewayOrderRef, "pay_1")
	require.NoError(t, env.service.ConfirmPayment(order.ID, buyer, order.Payment.GatewayOrderRef, "pay_1", signature))
	stale, err = env.service.FindUnreconciled(-time.Minute)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestVendorStats_ExcludesCancelled(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 2)
	env.checkoutCOD(t)
	env.fillCart(t, productAID, 1)
	env.fillCart(t, productBID, 4)
	cancelled := env.checkoutCOD(t)
	require.NoError(t, env.service.Cancel(cancelled.ID, buyer))

	stats, err := env.service.VendorStats(vendorID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, productAID, stats[0].ProductID)
	assert.Equal(t, 2, stats[0].UnitsSold)
	assert.True(t, stats[0].Revenue.Equal(decimal.NewFromInt(180)), "revenue = %s", stats[0].Revenue)
}

func TestCreateOrder_NotesSeedAuditTrail(t *testing.T) {
	env := newOrderTestEnv(t)
	env.fillCart(t, productAID, 1)

	order, err := env.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: addressID,
		PaymentMethod:     models.PaymentCashOnDelivery,
		Notes:             "leave at the door",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.Notes, "leave at the door"))
}
