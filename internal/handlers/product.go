package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/platform/product"
	"stockroom/internal/platform/storage"
)

func productError(c *fiber.Ctx, err error, action string) error {
	var insufficient *product.InsufficientStockError

	switch {
	case errors.Is(err, product.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Insufficient stock",
			"details": err.Error(),
		})
	case errors.Is(err, product.ErrCodeTaken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Product code already exists"})
	case errors.Is(err, product.ErrInvalidAction):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Action must be add or remove"})
	}

	log.Errorw("product request failed", "action", action, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to " + action})
}

func CreateProduct(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	productService := product.NewService(db)

	type ProductInput struct {
		Code          string  `json:"code" validate:"required"`
		Name          string  `json:"name" validate:"required"`
		UOM           string  `json:"uom" validate:"required"`
		Price         float64 `json:"price" validate:"min=0"`
		Stock         int     `json:"stock"`
		RestockLevel  int     `json:"restock_level" validate:"min=0"`
		StockLocation *string `json:"stock_location"`
		SuppliedBy    *string `json:"supplied_by"`
		Notes         *string `json:"notes"`
	}

	var input ProductInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p := database.Product{
		Code:          input.Code,
		Name:          input.Name,
		UOM:           input.UOM,
		Price:         input.Price,
		Stock:         input.Stock,
		RestockLevel:  input.RestockLevel,
		StockLocation: input.StockLocation,
		SuppliedBy:    input.SuppliedBy,
		Notes:         input.Notes,
	}

	if err := productService.Create(c.UserContext(), &p); err != nil {
		return productError(c, err, "create product")
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

func GetProduct(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	p, err := product.NewService(db).GetByID(c.UserContext(), id)
	if err != nil {
		return productError(c, err, "fetch product")
	}

	return c.JSON(p)
}

func UpdateProduct(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	var input product.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := product.NewService(db).Update(c.UserContext(), id, input)
	if err != nil {
		return productError(c, err, "update product")
	}

	return c.JSON(p)
}

func DeleteProduct(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	if err := product.NewService(db).Delete(c.UserContext(), id); err != nil {
		return productError(c, err, "delete product")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func DeleteAllProducts(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	deleted, err := product.NewService(db).DeleteAll(c.UserContext())
	if err != nil {
		return productError(c, err, "delete products")
	}

	log.Infow("all products deleted", "count", deleted, "user_id", currentUserID(c))

	return c.SendStatus(fiber.StatusNoContent)
}

func SearchProducts(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	result, err := product.NewService(db).Search(c.UserContext(), c.Query("q"), c.QueryInt("page", 1))
	if err != nil {
		return productError(c, err, "search products")
	}

	return c.JSON(result)
}

func AdjustStock(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product id"})
	}

	type StockInput struct {
		Action   string `json:"action" validate:"required,oneof=add remove"`
		Quantity int    `json:"quantity" validate:"required,min=1"`
	}

	var input StockInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	p, err := product.NewService(db).AdjustStock(c.UserContext(), id, input.Action, input.Quantity)
	if err != nil {
		return productError(c, err, "adjust stock")
	}

	return c.JSON(p)
}

func DeductStock(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	type DeductInput struct {
		ProductCode string `json:"product_code" validate:"required"`
		Quantity    int    `json:"quantity" validate:"required,min=1"`
	}

	var input DeductInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid input",
			"details": "Product code and quantity are required",
		})
	}

	p, err := product.NewService(db).DeductStock(c.UserContext(), input.ProductCode, input.Quantity)
	if err != nil {
		return productError(c, err, "deduct stock")
	}

	return c.JSON(p)
}

func ExportProducts(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	store, ok := c.Locals("storage").(fiber.Storage)
	if !ok || store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Export storage is not configured"})
	}

	products, err := product.NewService(db).All(c.UserContext())
	if err != nil {
		return productError(c, err, "export products")
	}

	key, err := storage.NewExportService(store).ExportProducts(products, Now())
	if err != nil {
		return productError(c, err, "export products")
	}

	log.Infow("products exported", "key", key, "count", len(products), "user_id", currentUserID(c))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key, "count": len(products)})
}
