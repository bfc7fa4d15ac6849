package middleware

import (
	"github.com/gofiber/fiber/v2"

	"stockroom/internal/database"
	"stockroom/internal/platform/guard"
)

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(guard.Identity)

	if !ok || user.Role != database.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden",
		})
	}

	return c.Next()
}
