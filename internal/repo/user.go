package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dexquiz/dexquiz/internal/models"
)

func (r *GormRepo) AddUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(passwordHash) == "" {
		return nil, ErrEmptyField
	}

	user := models.User{Username: username, PasswordHash: passwordHash}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(&user).Error
	})
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, ErrDuplicateUsername), isUniqueViolation(err):
		return nil, ErrDuplicateUsername
	default:
		return nil, fmt.Errorf("add user: %w", err)
	}
}

func (r *GormRepo) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// DeleteUser reports whether a row was removed. Highscores go with it.
func (r *GormRepo) DeleteUser(ctx context.Context, username string) (bool, error) {
	var removed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		// explicit so sqlite without foreign_keys behaves the same
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Highscore{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&user)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return removed, nil
}
