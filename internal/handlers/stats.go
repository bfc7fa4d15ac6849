package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"stockroom/internal/platform/product"
)

const defaultStockMultiplier = 3

func GetStockStats(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	multiplier := c.QueryFloat("multiplier", defaultStockMultiplier)
	if multiplier <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Multiplier must be positive"})
	}

	stats, err := product.NewService(db).StockStats(c.UserContext(), multiplier)
	if err != nil {
		return productError(c, err, "get stock stats")
	}

	return c.JSON(stats)
}
