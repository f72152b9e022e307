package handlers

import (
	"errors"
	"time"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles task CRUD and recurrence endpoints
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// refDate resolves the ?date= query, defaulting to now. The date is the
// client's notion of "today" so relevance filtering matches their calendar.
func refDate(c *fiber.Ctx) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), true
	}
	return models.ParseDayUTC(raw)
}

// Create adds a new task
// POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.taskService.Create(c.Context(), middleware.UserID(c), &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// List returns all of the user's tasks
// GET /api/tasks
func (h *TaskHandler) List(c *fiber.Ctx) error {
	tasks, err := h.taskService.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}
	return c.JSON(fiber.Map{"tasks": tasks, "count": len(tasks)})
}

// Today returns the tasks relevant for the reference date
// GET /api/tasks/today?date=2026-01-15
func (h *TaskHandler) Today(c *fiber.Ctx) error {
	ref, ok := refDate(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date must be YYYY-MM-DD",
		})
	}

	tasks, err := h.taskService.Today(c.Context(), middleware.UserID(c), ref)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}
	return c.JSON(fiber.Map{"tasks": tasks, "count": len(tasks)})
}

// Get returns a single task
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, err := h.taskService.Get(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get task",
		})
	}
	return c.JSON(task)
}

// Update applies a partial update to a task
// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.taskService.Update(c.Context(), middleware.UserID(c), c.Params("id"), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task",
		})
	}
	return c.JSON(task)
}

// Complete marks a task done for the reference date
// POST /api/tasks/:id/complete?date=2026-01-15
func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	ref, ok := refDate(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date must be YYYY-MM-DD",
		})
	}

	task, err := h.taskService.Complete(c.Context(), middleware.UserID(c), c.Params("id"), ref)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete task",
		})
	}
	return c.JSON(task)
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	err := h.taskService.Delete(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete task",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
