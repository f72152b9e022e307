package handlers

import (
	"errors"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ThoughtHandler handles thought journal endpoints
type ThoughtHandler struct {
	thoughtService *services.ThoughtService
}

// NewThoughtHandler creates a new thought handler
func NewThoughtHandler(thoughtService *services.ThoughtService) *ThoughtHandler {
	return &ThoughtHandler{thoughtService: thoughtService}
}

// AddTagsRequest is the request body for appending tags
type AddTagsRequest struct {
	Tags []string `json:"tags"`
}

// Create adds a new thought
// POST /api/thoughts
func (h *ThoughtHandler) Create(c *fiber.Ctx) error {
	var req models.CreateThoughtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	thought, err := h.thoughtService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(thought)
}

// List returns all of the user's thoughts
// GET /api/thoughts
func (h *ThoughtHandler) List(c *fiber.Ctx) error {
	thoughts, err := h.thoughtService.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list thoughts",
		})
	}
	return c.JSON(fiber.Map{"thoughts": thoughts, "count": len(thoughts)})
}

// Get returns a single thought
// GET /api/thoughts/:id
func (h *ThoughtHandler) Get(c *fiber.Ctx) error {
	thought, err := h.thoughtService.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Thought not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get thought",
		})
	}
	return c.JSON(thought)
}

// Update applies a partial update to a thought
// PATCH /api/thoughts/:id
func (h *ThoughtHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateThoughtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	thought, err := h.thoughtService.Update(c.Context(), middleware.UserID(c), c.Params("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Thought not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update thought",
		})
	}
	return c.JSON(thought)
}

// AddTags appends tags to a thought without duplicating existing ones
// POST /api/thoughts/:id/tags
func (h *ThoughtHandler) AddTags(c *fiber.Ctx) error {
	var req AddTagsRequest
	if err := c.BodyParser(&req); err != nil || len(req.Tags) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "tags is required",
		})
	}

	thought, err := h.thoughtService.AddTags(c.Context(), middleware.UserID(c), c.Params("id"), req.Tags)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Thought not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add tags",
		})
	}
	return c.JSON(thought)
}

// AnalysisHTML renders the CBT analysis of a thought as HTML
// GET /api/thoughts/:id/analysis.html
func (h *ThoughtHandler) AnalysisHTML(c *fiber.Ctx) error {
	thought, err := h.thoughtService.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Thought not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get thought",
		})
	}

	html, err := services.RenderAnalysisHTML(thought.Analysis)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Thought has no analysis",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// Delete removes a thought
// DELETE /api/thoughts/:id
func (h *ThoughtHandler) Delete(c *fiber.Ctx) error {
	err := h.thoughtService.Delete(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Thought not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete thought",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
