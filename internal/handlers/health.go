package handlers

import (
	"context"
	"time"

	"focusnotebook/internal/database"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	mongo *database.MongoDB
	sql   *database.DB
	redis *services.RedisService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongo *database.MongoDB, sql *database.DB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{mongo: mongo, sql: sql, redis: redis}
}

// Handle responds with server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	if err := h.mongo.Ping(ctx); err != nil {
		checks["mongodb"] = "unreachable"
		healthy = false
	} else {
		checks["mongodb"] = "ok"
	}

	if h.sql != nil {
		if err := h.sql.PingContext(ctx); err != nil {
			checks["mysql"] = "unreachable"
			healthy = false
		} else {
			checks["mysql"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := "healthy"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
