package middleware

import (
	"focusnotebook/internal/config"

	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware restricts a route group to operators: the admin role
// (granted to the first registered user) or an ID listed in
// SUPERADMIN_USER_IDS. Operator routes manage the AI provider registry,
// not user data.
func AdminMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(string)
		if !ok || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		role, _ := c.Locals("user_role").(string)
		if role != "admin" && !cfg.IsSuperadmin(userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}

		c.Locals("is_admin", true)
		return c.Next()
	}
}
