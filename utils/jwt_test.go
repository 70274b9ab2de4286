package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/qwinza/tani-web/models"
)

func roleApp(role string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/products",
		func(c *fiber.Ctx) error {
			c.Locals("role", role)
			return c.Next()
		},
		guard,
		func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
	return app
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		role string
		want int
	}{
		{"matching role passes", models.RoleBuyer, fiber.StatusOK},
		{"other role is rejected", models.RoleFarmer, fiber.StatusForbidden},
		{"missing role is rejected", "", fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := roleApp(tc.role, RequireRole(models.RoleBuyer))

			resp, err := app.Test(httptest.NewRequest("GET", "/products", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
