package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SubscriptionHandler handles subscription tracking endpoints
type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Create adds a new subscription
// POST /api/subscriptions
func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	var req models.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sub, err := h.subscriptionService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// List returns all of the user's subscriptions
// GET /api/subscriptions
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	subs, err := h.subscriptionService.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list subscriptions",
		})
	}
	return c.JSON(fiber.Map{"subscriptions": subs, "count": len(subs)})
}

// Update applies a partial update to a subscription
// PATCH /api/subscriptions/:id
func (h *SubscriptionHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sub, err := h.subscriptionService.Update(c.Context(), middleware.UserID(c), c.Params("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Subscription not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(sub)
}

// Delete removes a subscription
// DELETE /api/subscriptions/:id
func (h *SubscriptionHandler) Delete(c *fiber.Ctx) error {
	err := h.subscriptionService.Delete(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Subscription not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete subscription",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// Upcoming returns subscriptions billing within the next N days
// GET /api/subscriptions/upcoming?days=7
func (h *SubscriptionHandler) Upcoming(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days < 1 || days > 365 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be between 1 and 365",
		})
	}

	subs, err := h.subscriptionService.Upcoming(c.Context(), middleware.UserID(c), days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list upcoming subscriptions",
		})
	}
	return c.JSON(fiber.Map{"subscriptions": subs, "count": len(subs), "days": days})
}

// Analysis returns the spending breakdown
// GET /api/spending/analysis
func (h *SubscriptionHandler) Analysis(c *fiber.Ctx) error {
	analysis, err := h.subscriptionService.Analysis(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute spending analysis",
		})
	}
	return c.JSON(analysis)
}

// Report streams the spending report as an XLSX workbook
// GET /api/spending/report.xlsx
func (h *SubscriptionHandler) Report(c *fiber.Ctx) error {
	buf, err := h.subscriptionService.ReportXLSX(c.Context(), middleware.UserID(c))
	if err != nil {
		log.Printf("❌ Failed to build spending report: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build spending report",
		})
	}

	filename := fmt.Sprintf("spending-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
