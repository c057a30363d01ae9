package handlers

import (
	"time"

	"bazar/internal/middleware"
	"bazar/internal/models"
	"bazar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The static
// /stats and /reconciliation paths must precede the /:id parameter routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/stats", middleware.RequireRole(models.RoleVendor), h.HandleVendorStats)
	orderRoutes.Get("/reconciliation", middleware.RequireRole(models.RoleAdmin), h.HandleReconciliation)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/status", middleware.RequireRole(models.RoleVendor), h.HandleUpdateOrderStatus)
	orderRoutes.Put("/:id/payment", h.HandleConfirmPayment)
	orderRoutes.Put("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Put("/:id/vendor-action", middleware.RequireRole(models.RoleVendor), h.HandleVendorAction)
	orderRoutes.Get("/:id/tracking", h.HandleGetTracking)
	orderRoutes.Put("/:id/tracking", middleware.RequireRole(models.RoleVendor), h.HandleUpdateTracking)
}

// HandleListOrders returns one page of the caller's orders: a buyer sees
// their own, a vendor sees orders containing their products.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	orders, total, err := h.service.ListOrders(actor, page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// HandleGetOrderByID fetches one order after an ownership check.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	order, err := h.service.GetOrder(c.Params("id"), actor)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, order)
}

// CreateOrderRequest is the checkout request body.
type CreateOrderRequest struct {
	ShippingAddressID string `json:"shipping_address_id" validate:"required,uuid"`
	PaymentMethod     string `json:"payment_method" validate:"required,oneof=online cod"`
	CouponCode        string `json:"coupon_code" validate:"omitempty,min=3,max=64"`
	Notes             string `json:"notes" validate:"omitempty,max=500"`
}

// HandleCreateOrder converts the caller's cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	order, err := h.service.CreateOrder(services.CreateOrderInput{
		BuyerID:           actor.ID,
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     models.PaymentMethod(req.PaymentMethod),
		CouponCode:        req.CouponCode,
		Notes:             req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, order)
}

// UpdateStatusRequest is the vendor-driven status transition body.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed cancelled"`
}

// HandleUpdateOrderStatus applies a vendor-driven status transition.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	if err := h.service.UpdateStatus(c.Params("id"), models.OrderStatus(req.Status), actor); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"status": req.Status})
}

// ConfirmPaymentRequest is the online-gateway payment confirmation body.
type ConfirmPaymentRequest struct {
	GatewayOrderRef   string `json:"gateway_order_ref" validate:"required"`
	GatewayPaymentRef string `json:"gateway_payment_ref" validate:"required"`
	Signature         string `json:"signature" validate:"required"`
}

// HandleConfirmPayment verifies a gateway payment confirmation.
func (h *OrderHandler) HandleConfirmPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	err := h.service.ConfirmPayment(c.Params("id"), actor, req.GatewayOrderRef, req.GatewayPaymentRef, req.Signature)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"payment_status": models.PaymentCompleted})
}

// HandleCancelOrder cancels an order for its buyer or a vendor with a
// product on it.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	if err := h.service.Cancel(c.Params("id"), actor); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"status": models.StatusCancelled})
}

// VendorActionRequest is the accept/reject body for COD orders.
type VendorActionRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

// HandleVendorAction accepts or rejects a pending cash-on-delivery order.
func (h *OrderHandler) HandleVendorAction(c *fiber.Ctx) error {
	var req VendorActionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	if err := h.service.VendorAction(c.Params("id"), req.Action, actor); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"action": req.Action})
}

// HandleGetTracking returns the delivery tracking of an order.
func (h *OrderHandler) HandleGetTracking(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	tracking, err := h.service.GetTracking(c.Params("id"), actor)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, tracking)
}

// UpdateTrackingRequest is the vendor-side tracking update body.
type UpdateTrackingRequest struct {
	Latitude       float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64 `json:"longitude" validate:"gte=-180,lte=180"`
	DeliveryStatus string  `json:"delivery_status" validate:"required,oneof=preparing ready_for_pickup in_transit delivered"`
	ETA            string  `json:"eta" validate:"omitempty,max=64"`
	DistanceMeters float64 `json:"distance_meters" validate:"gte=0"`
	Route          string  `json:"route" validate:"omitempty,max=255"`
}

// HandleUpdateTracking writes the delivery tracking of an order.
func (h *OrderHandler) HandleUpdateTracking(c *fiber.Ctx) error {
	var req UpdateTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	err := h.service.UpdateTracking(c.Params("id"), actor, services.TrackingUpdateInput{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		DeliveryStatus: models.DeliveryStatus(req.DeliveryStatus),
		ETA:            req.ETA,
		DistanceMeters: req.DistanceMeters,
		Route:          req.Route,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"delivery_status": req.DeliveryStatus})
}

// HandleVendorStats returns the caller's per-product sales aggregation.
func (h *OrderHandler) HandleVendorStats(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	stats, err := h.service.VendorStats(actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, stats)
}

// HandleReconciliation lists orders whose decremented stock was never
// matched by a terminal state within the cutoff window.
func (h *OrderHandler) HandleReconciliation(c *fiber.Ctx) error {
	maxAgeMinutes := c.QueryInt("max_age_minutes", 60)
	orders, err := h.service.FindUnreconciled(time.Duration(maxAgeMinutes) * time.Minute)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, orders)
}
