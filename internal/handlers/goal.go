package handlers

import (
	"errors"
	"time"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// GoalHandler handles goal endpoints
type GoalHandler struct {
	goalService *services.GoalService
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(goalService *services.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GoalStatusRequest is the request body for a status transition
type GoalStatusRequest struct {
	Status string `json:"status"`
}

// Create adds a new goal
// POST /api/goals
func (h *GoalHandler) Create(c *fiber.Ctx) error {
	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	goal, err := h.goalService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// List returns all of the user's goals
// GET /api/goals
func (h *GoalHandler) List(c *fiber.Ctx) error {
	goals, err := h.goalService.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list goals",
		})
	}
	return c.JSON(fiber.Map{"goals": goals, "count": len(goals)})
}

// SetStatus transitions a goal between active, completed and archived
// PUT /api/goals/:id/status
func (h *GoalHandler) SetStatus(c *fiber.Ctx) error {
	var req GoalStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	goal, err := h.goalService.SetStatus(c.Context(), middleware.UserID(c), c.Params("id"), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Goal not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(goal)
}

// Delete removes a goal
// DELETE /api/goals/:id
func (h *GoalHandler) Delete(c *fiber.Ctx) error {
	err := h.goalService.Delete(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Goal not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete goal",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}

// WeeklyStats returns goal progress for the week containing the reference date
// GET /api/goals/stats/weekly?date=2026-01-15
func (h *GoalHandler) WeeklyStats(c *fiber.Ctx) error {
	ref := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, ok := models.ParseDayUTC(raw)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be YYYY-MM-DD",
			})
		}
		ref = parsed
	}

	stats, err := h.goalService.WeeklyStats(c.Context(), middleware.UserID(c), ref)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute weekly stats",
		})
	}
	return c.JSON(stats)
}
