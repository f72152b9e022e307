package handlers

import (
	"errors"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AIHandler handles AI thought processing endpoints
type AIHandler struct {
	aiService *services.AIService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(aiService *services.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// ProcessThoughtRequest is the request body for queueing analysis
type ProcessThoughtRequest struct {
	ThoughtID string `json:"thought_id"`
}

// ProcessThought queues a thought for AI analysis and returns the pending
// request record. Clients poll GET /api/ai/requests/:id for the outcome.
// POST /api/ai/process-thought
func (h *AIHandler) ProcessThought(c *fiber.Ctx) error {
	var req ProcessThoughtRequest
	if err := c.BodyParser(&req); err != nil || req.ThoughtID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "thought_id is required",
		})
	}

	request, err := h.aiService.ProcessThought(c.Context(), middleware.UserID(c), req.ThoughtID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAILimitReached):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Daily AI request limit reached",
			})
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Thought not found",
			})
		default:
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(request)
}

// GetRequest returns the status and result of one AI request
// GET /api/ai/requests/:id
func (h *AIHandler) GetRequest(c *fiber.Ctx) error {
	request, err := h.aiService.GetRequest(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Request not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get request",
		})
	}
	return c.JSON(request)
}
