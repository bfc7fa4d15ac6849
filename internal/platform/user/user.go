package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stockroom/internal/database"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

type UserService struct {
	db     *gorm.DB
	hasher PasswordHasher
}

func NewService(db *gorm.DB, hasher PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

// Create hashes the plaintext password and inserts the user.
func (s *UserService) Create(ctx context.Context, username, password, role string) (*database.User, error) {
	taken, err := s.UsernameTaken(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = database.RoleUser
	}

	user := &database.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}

	result := s.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", result.Error)
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int) (*database.User, error) {
	var user database.User

	result := s.db.WithContext(ctx).First(&user, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	var user database.User

	result := s.db.WithContext(ctx).First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]database.User, error) {
	var users []database.User

	result := s.db.WithContext(ctx).
		Select("id", "username", "role", "created_at", "last_login", "locked_until").
		Order("id").
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

// UsernameTaken reports whether another user than excludeID owns username.
func (s *UserService) UsernameTaken(ctx context.Context, username string, excludeID int) (bool, error) {
	var count int64

	query := s.db.WithContext(ctx).Model(&database.User{}).Where("username = ?", username)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type UpdateInput struct {
	Username string
	Role     string
	// Password is re-hashed when not empty.
	Password string
}

func (s *UserService) Update(ctx context.Context, userID int, input UpdateInput) (*database.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != "" && input.Username != user.Username {
		taken, err := s.UsernameTaken(ctx, input.Username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}

	updates := map[string]any{}
	if input.Username != "" {
		updates["username"] = input.Username
	}
	if input.Role != "" {
		updates["role"] = input.Role
	}
	if input.Password != "" {
		hash, err := s.hasher.Hash(input.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}
	if len(updates) == 0 {
		return user, nil
	}

	result := s.db.WithContext(ctx).Model(user).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, result.Error
	}
	return s.GetUserByID(ctx, userID)
}

func (s *UserService) Delete(ctx context.Context, userID int) error {
	result := s.db.WithContext(ctx).Delete(&database.User{}, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Unlock clears the failed-attempt counter and any lock.
func (s *UserService) Unlock(ctx context.Context, userID int) error {
	result := s.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"failed_attempts": 0, "locked_until": gorm.Expr("NULL")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) IsLocked(user *database.User, now time.Time) bool {
	return user.LockedUntil != nil && user.LockedUntil.After(now)
}
