package handlers

import (
	"errors"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PackingHandler handles travel packing list endpoints
type PackingHandler struct {
	packingService *services.PackingService
}

// NewPackingHandler creates a new packing handler
func NewPackingHandler(packingService *services.PackingService) *PackingHandler {
	return &PackingHandler{packingService: packingService}
}

// SetPackedRequest is the request body for toggling an item
type SetPackedRequest struct {
	Packed bool `json:"packed"`
}

// Templates returns the available packing template names
// GET /api/packing/templates
func (h *PackingHandler) Templates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"templates": h.packingService.Templates()})
}

// Create makes a new list, optionally seeded from a template
// POST /api/packing
func (h *PackingHandler) Create(c *fiber.Ctx) error {
	var req models.CreatePackingListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	list, err := h.packingService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// List returns the user's packing lists
// GET /api/packing
func (h *PackingHandler) List(c *fiber.Ctx) error {
	lists, err := h.packingService.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list packing lists",
		})
	}
	return c.JSON(fiber.Map{"lists": lists, "count": len(lists)})
}

// SetItemPacked toggles one item's packed flag by position
// PUT /api/packing/:id/items/:index
func (h *PackingHandler) SetItemPacked(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "index must be a non-negative integer",
		})
	}

	var req SetPackedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	list, err := h.packingService.SetItemPacked(c.Context(), middleware.UserID(c), c.Params("id"), index, req.Packed)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "List or item not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update item",
		})
	}
	return c.JSON(list)
}

// Delete removes a packing list
// DELETE /api/packing/:id
func (h *PackingHandler) Delete(c *fiber.Ctx) error {
	err := h.packingService.Delete(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "List not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete list",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
