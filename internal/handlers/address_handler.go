package handlers

import (
	"bazar/internal/middleware"
	"bazar/internal/models"
	"bazar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for the caller's address book.
type AddressHandler struct {
	service  *services.AddressService
	validate *validator.Validate
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService) *AddressHandler {
	return &AddressHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the address routes with the Fiber app.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	addressRoutes := router.Group("/addresses")
	addressRoutes.Get("/", h.HandleListAddresses)
	addressRoutes.Post("/", h.HandleCreateAddress)
}

// HandleListAddresses returns the caller's saved addresses.
func (h *AddressHandler) HandleListAddresses(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	addresses, err := h.service.ListAddresses(actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, addresses)
}

// HandleCreateAddress stores a new address for the caller.
func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		return respondBadBody(c, err)
	}
	if err := h.validate.Struct(address); err != nil {
		return respondValidationError(c, err)
	}

	actor := middleware.ActorFromContext(c)
	if err := h.service.CreateAddress(actor.ID, &address); err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, address)
}
