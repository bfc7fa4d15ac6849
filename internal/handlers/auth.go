package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/platform/guard"
	"stockroom/internal/platform/password"
	puser "stockroom/internal/platform/user"
)

const (
	messageInvalidCredentials = "Invalid username or password"
	messageServerError        = "Server error"
)

// Now is the clock handed to the login guard.
var Now = time.Now

// loginResponse maps a guard verdict onto a status code and response body.
func loginResponse(verdict guard.Verdict) (int, fiber.Map) {
	switch verdict.Outcome {
	case guard.Accepted:
		return fiber.StatusOK, fiber.Map{"success": true}
	case guard.Locked:
		return fiber.StatusUnauthorized, fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Account is locked. Try again in %d minutes", verdict.RetryAfterMinutes),
		}
	default:
		return fiber.StatusUnauthorized, fiber.Map{"success": false, "message": messageInvalidCredentials}
	}
}

func sessionCookie(cfg *config.Config, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func Login(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	loginGuard := c.Locals("guard").(*guard.Guard)

	type LoginInput struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Username and password are required"})
	}

	now := Now()
	verdict, err := loginGuard.Evaluate(c.UserContext(), input.Username, input.Password, now)
	if err != nil {
		log.Errorw("login failed", "request_id", c.Locals("requestid"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": messageServerError})
	}

	switch verdict.Outcome {
	case guard.Accepted:
		token, err := auth.GenerateJWT([]byte(cfg.JWTSecret), *verdict.Identity, now, cfg.SessionTTL)
		if err != nil {
			log.Errorw("failed to sign session", "user_id", verdict.Identity.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": messageServerError})
		}
		c.Cookie(sessionCookie(cfg, token, now.Add(cfg.SessionTTL)))
		log.Infow("login accepted", "user_id", verdict.Identity.ID)
	case guard.Locked:
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(verdict.RetryAfterMinutes*60))
		log.Warnw("login refused, account locked", "username", input.Username, "retry_after_minutes", verdict.RetryAfterMinutes)
	}

	status, body := loginResponse(verdict)
	return c.Status(status).JSON(body)
}

func Logout(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)

	c.Cookie(sessionCookie(cfg, "", time.Unix(0, 0)))

	return c.JSON(fiber.Map{"success": true})
}

// ChangePassword verifies the current password through the login guard, so
// wrong guesses count toward the lock like any other sign-in.
func ChangePassword(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	loginGuard := c.Locals("guard").(*guard.Guard)
	user := c.Locals("user").(guard.Identity)

	userService := puser.NewService(db, password.NewHasher(cfg.BcryptCost))

	type ChangePasswordInput struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
	}

	var input ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	verdict, err := loginGuard.Reauthenticate(c.UserContext(), user.Username, input.CurrentPassword, Now())
	if err != nil {
		log.Errorw("password change failed", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": messageServerError})
	}
	if verdict.Outcome != guard.Accepted {
		status, body := loginResponse(verdict)
		return c.Status(status).JSON(body)
	}

	if _, err := userService.Update(c.UserContext(), user.ID, puser.UpdateInput{Password: input.NewPassword}); err != nil {
		log.Errorw("failed to store new password", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": messageServerError})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
