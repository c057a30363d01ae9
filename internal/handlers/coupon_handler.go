package handlers

import (
	"bazar/internal/middleware"
	"bazar/internal/models"
	"bazar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CouponHandler handles the admin-facing coupon tooling.
type CouponHandler struct {
	service  *services.CouponService
	validate *validator.Validate
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *services.CouponService) *CouponHandler {
	return &CouponHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the coupon routes with the Fiber app.
func (h *CouponHandler) RegisterRoutes(router fiber.Router) {
	couponRoutes := router.Group("/coupons", middleware.RequireRole(models.RoleAdmin))
	couponRoutes.Post("/", h.HandleCreateCoupon)
	couponRoutes.Get("/:code", h.HandleGetCoupon)
}

// HandleCreateCoupon stores a new coupon rule.
func (h *CouponHandler) HandleCreateCoupon(c *fiber.Ctx) error {
	var coupon models.Coupon
	if err := c.BodyParser(&coupon); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(coupon); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.service.CreateCoupon(&coupon); err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, coupon)
}

// HandleGetCoupon returns one coupon by code.
func (h *CouponHandler) HandleGetCoupon(c *fiber.Ctx) error {
	coupon, err := h.service.GetCoupon(c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, coupon)
}
