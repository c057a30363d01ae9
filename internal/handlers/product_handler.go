package handlers

import (
	"bazar/internal/middleware"
	"bazar/internal/models"
	"bazar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the vendor-owned catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", middleware.RequireRole(models.RoleVendor, models.RoleAdmin), h.HandleCreateProduct)
	productRoutes.Put("/:id", middleware.RequireRole(models.RoleVendor, models.RoleAdmin), h.HandleUpdateProduct)
	productRoutes.Delete("/:id", middleware.RequireRole(models.RoleVendor, models.RoleAdmin), h.HandleDeleteProduct)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, product)
}

// HandleCreateProduct creates a new product owned by the calling vendor.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(product); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	if err := h.service.CreateProduct(actor.ID, &product); err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, product)
}

// HandleUpdateProduct updates an existing product after an ownership check.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondBadBody(c, err)
	}
	product.ID = c.Params("id")
	if err := h.validate.Struct(product); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	if err := h.service.UpdateProduct(actor, &product); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, product)
}

// HandleDeleteProduct deletes a product after an ownership check.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	if err := h.service.DeleteProduct(actor, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, fiber.Map{"deleted": c.Params("id")})
}
