package handlers

import (
	"log"

	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProviderHandler handles admin provider registry endpoints
type ProviderHandler struct {
	providerService *services.ProviderService
	providersFile   string
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(providerService *services.ProviderService, providersFile string) *ProviderHandler {
	return &ProviderHandler{providerService: providerService, providersFile: providersFile}
}

// List returns all providers including disabled ones. API keys stay hidden.
// GET /api/admin/providers
func (h *ProviderHandler) List(c *fiber.Ctx) error {
	providers, err := h.providerService.GetAllIncludingDisabled()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list providers",
		})
	}
	return c.JSON(fiber.Map{"providers": providers, "count": len(providers)})
}

// Sync reloads the registry from the providers file on demand
// POST /api/admin/providers/sync
func (h *ProviderHandler) Sync(c *fiber.Ctx) error {
	if h.providersFile == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No providers file configured",
		})
	}

	if err := h.providerService.SyncFromFile(h.providersFile); err != nil {
		log.Printf("❌ Provider sync failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Provider sync failed",
		})
	}
	return c.JSON(fiber.Map{"synced": true})
}
