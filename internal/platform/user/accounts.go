package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"stockroom/internal/database"
	"stockroom/internal/platform/guard"
)

var _ guard.AccountStore = (*UserService)(nil)

// FindByUsername reads the login state of an account. It always goes to the
// database.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*guard.Account, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, guard.ErrAccountNotFound
		}
		return nil, err
	}

	return &guard.Account{
		ID:             user.ID,
		Username:       user.Username,
		PasswordHash:   user.PasswordHash,
		Role:           user.Role,
		FailedAttempts: user.FailedAttempts,
		LockedUntil:    user.LockedUntil,
		LastLogin:      user.LastLogin,
	}, nil
}

// UpdateLoginFields writes the login state only while failed_attempts still
// holds the value the caller read.
func (s *UserService) UpdateLoginFields(ctx context.Context, id int, expectedFailedAttempts int, fields guard.LoginFields) error {
	updates := map[string]any{
		"failed_attempts": fields.FailedAttempts,
		"locked_until":    gorm.Expr("NULL"),
	}
	if fields.LockedUntil != nil {
		updates["locked_until"] = *fields.LockedUntil
	}
	if fields.LastLogin != nil {
		updates["last_login"] = *fields.LastLogin
	}

	result := s.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ? AND failed_attempts = ?", id, expectedFailedAttempts).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return guard.ErrConflict
	}
	return nil
}
