package mngmt

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/platform/guard"
	"stockroom/internal/platform/password"
	"stockroom/internal/platform/user"
)

func newUserService(c *fiber.Ctx) *user.UserService {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	return user.NewService(db, password.NewHasher(cfg.BcryptCost))
}

func userError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	case errors.Is(err, user.ErrUsernameTaken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username already exists"})
	}

	log.Errorw("user management request failed", "action", action, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to " + action})
}

// UserStatus is a user as shown to administrators, with the lock evaluated
// at request time.
type UserStatus struct {
	database.User
	Locked bool `json:"locked"`
}

func GetAllUsers(c *fiber.Ctx) error {
	userService := newUserService(c)

	users, err := userService.List(c.UserContext())
	if err != nil {
		return userError(c, err, "fetch users")
	}

	now := time.Now()
	result := make([]UserStatus, 0, len(users))
	for i := range users {
		result = append(result, UserStatus{User: users[i], Locked: userService.IsLocked(&users[i], now)})
	}

	return c.JSON(result)
}

func CreateUser(c *fiber.Ctx) error {
	userService := newUserService(c)

	type UserInput struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role" validate:"omitempty,oneof=admin user"`
	}

	var input UserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := userService.Create(c.UserContext(), input.Username, input.Password, input.Role)
	if err != nil {
		return userError(c, err, "create user")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user id"})
	}

	userService := newUserService(c)

	u, err := userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return userError(c, err, "fetch user")
	}

	return c.JSON(UserStatus{User: *u, Locked: userService.IsLocked(u, time.Now())})
}

func UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user id"})
	}

	type UserInput struct {
		Username string `json:"username"`
		Role     string `json:"role" validate:"omitempty,oneof=admin user"`
		// Password is only changed when provided.
		Password string `json:"password" validate:"omitempty,min=6"`
	}

	var input UserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	u, err := newUserService(c).Update(c.UserContext(), id, user.UpdateInput{
		Username: input.Username,
		Role:     input.Role,
		Password: input.Password,
	})
	if err != nil {
		return userError(c, err, "update user")
	}

	return c.JSON(u)
}

func DeleteUser(c *fiber.Ctx) error {
	current := c.Locals("user").(guard.Identity)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user id"})
	}

	if id == current.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cannot delete your own account"})
	}

	if err := newUserService(c).Delete(c.UserContext(), id); err != nil {
		return userError(c, err, "delete user")
	}

	log.Infow("user deleted", "user_id", id, "by", current.ID)

	return c.SendStatus(fiber.StatusNoContent)
}

// UnlockUser clears a lock and the failed-attempt counter ahead of expiry.
func UnlockUser(c *fiber.Ctx) error {
	current := c.Locals("user").(guard.Identity)

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user id"})
	}

	if err := newUserService(c).Unlock(c.UserContext(), id); err != nil {
		return userError(c, err, "unlock user")
	}

	log.Infow("user unlocked", "user_id", id, "by", current.ID)

	return c.SendStatus(fiber.StatusNoContent)
}
