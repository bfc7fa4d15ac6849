package handlers

import (
	"github.com/gofiber/fiber/v2"

	"stockroom/internal/platform/guard"
)

func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(guard.Identity)

	return c.JSON(user)
}

func currentUserID(c *fiber.Ctx) int {
	if user, ok := c.Locals("user").(guard.Identity); ok {
		return user.ID
	}
	return 0
}
