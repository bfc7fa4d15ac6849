package middleware

import (
	"github.com/gofiber/fiber/v2"

	"stockroom/internal/auth"
	"stockroom/internal/config"
)

func AuthMiddleware(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)

	token := c.Cookies(auth.CookieName)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	claims, err := auth.VerifyJWT([]byte(cfg.JWTSecret), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	c.Locals("user", claims.Identity())

	return c.Next()
}
