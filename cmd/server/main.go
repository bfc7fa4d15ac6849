package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/handlers"
	mngmt "stockroom/internal/handlers/management"
	"stockroom/internal/mail"
	"stockroom/internal/middleware"
	"stockroom/internal/platform/guard"
	"stockroom/internal/platform/password"
	"stockroom/internal/platform/user"
	"stockroom/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	hasher := password.NewHasher(cfg.BcryptCost)

	opts := guard.Options{
		Threshold:    cfg.LockThreshold,
		LockDuration: cfg.LockDuration,
	}
	if cfg.MailEnabled() {
		mailer := mail.NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase)
		opts.Notifier = mail.NewLockNotifier(mailer, mailer.Sender(), cfg.LockNotifyTo)
	}
	loginGuard := guard.New(user.NewService(db, hasher), hasher, opts)

	var store fiber.Storage
	if cfg.StorageEnabled() {
		store = cfg.Storage()
	}

	app := fiber.New()

	app.Use(compress.New())
	app.Use(helmet.New())
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return utils.GenerateRandomString(16) },
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
	}))
	app.Use(healthcheck.New())

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("db", db)
		c.Locals("guard", loginGuard)
		if store != nil {
			c.Locals("storage", store)
		}
		return c.Next()
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", handlers.Login)
	auth.Post("/logout", handlers.Logout)
	auth.Get("/me", middleware.AuthMiddleware, handlers.GetCurrentUser)
	auth.Put("/password", middleware.AuthMiddleware, handlers.ChangePassword)

	api.Get("/stock-stats", middleware.AuthMiddleware, handlers.GetStockStats)

	product := api.Group("/products", middleware.AuthMiddleware)
	product.Post("/", handlers.CreateProduct)
	product.Delete("/", handlers.DeleteAllProducts)
	product.Get("/search", handlers.SearchProducts)
	product.Post("/deduct-stock", handlers.DeductStock)
	product.Post("/export", middleware.AdminMiddleware, handlers.ExportProducts)
	product.Get("/:id", handlers.GetProduct)
	product.Put("/:id", handlers.UpdateProduct)
	product.Delete("/:id", handlers.DeleteProduct)
	product.Post("/:id/stock", handlers.AdjustStock)

	users := api.Group("/users", middleware.AuthMiddleware, middleware.AdminMiddleware)
	users.Get("/", mngmt.GetAllUsers)
	users.Post("/", mngmt.CreateUser)
	users.Get("/:id", mngmt.GetUser)
	users.Put("/:id", mngmt.UpdateUser)
	users.Delete("/:id", mngmt.DeleteUser)
	users.Post("/:id/unlock", mngmt.UnlockUser)

	app.Use(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	log.Fatal(app.Listen(fmt.Sprintf(":%d", cfg.ServerPort)))
}
