package handlers

import (
	"bazar/internal/middleware"
	"bazar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
}

// HandleGetCart returns the caller's cart lines.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	items, err := h.service.GetCart(actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, items)
}

// AddCartItemRequest is the add-to-cart body.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// HandleAddItem adds a product to the caller's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	if err := h.service.AddItem(actor.ID, req.ProductID, req.Quantity); err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, fiber.Map{"product_id": req.ProductID, "quantity": req.Quantity})
}

// HandleRemoveItem removes one product line from the caller's cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	if err := h.service.RemoveItem(actor.ID, c.Params("productId")); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"removed": c.Params("productId")})
}
