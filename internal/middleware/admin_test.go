package middleware

import (
	"net/http/httptest"
	"testing"

	"focusnotebook/internal/config"

	"github.com/gofiber/fiber/v2"
)

func TestAdminMiddleware(t *testing.T) {
	cfg := &config.Config{SuperadminUserIDs: []string{"user-ops"}}

	tests := []struct {
		name       string
		userID     string
		role       string
		wantStatus int
	}{
		{"unauthenticated", "", "", fiber.StatusUnauthorized},
		{"regular user", "user-1", "user", fiber.StatusForbidden},
		{"admin role", "user-1", "admin", fiber.StatusOK},
		{"superadmin list", "user-ops", "user", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tt.userID != "" {
					c.Locals("user_id", tt.userID)
					c.Locals("user_role", tt.role)
				}
				return c.Next()
			})
			app.Get("/admin/providers", AdminMiddleware(cfg), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/admin/providers", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
