package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dexquiz/dexquiz/internal/models"
)

const (
	highscoreColumns = "users.username AS username, highscores.score AS score, highscores.achieved_at AS achieved_at"
	highscoreOrder   = "highscores.score DESC, highscores.id ASC"
)

func (r *GormRepo) entries(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("highscores").
		Select(highscoreColumns).
		Joins("JOIN users ON users.id = highscores.user_id").
		Order(highscoreOrder)
}

// AddHighscore resolves the user and inserts the score in one transaction,
// returning the joined row as stored.
func (r *GormRepo) AddHighscore(ctx context.Context, username string, score int) (*models.HighscoreEntry, error) {
	var entry models.HighscoreEntry
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		hs := models.Highscore{
			UserID:     user.ID,
			Score:      score,
			AchievedAt: time.Now().UTC(),
		}
		if err := tx.Create(&hs).Error; err != nil {
			return err
		}

		return tx.Table("highscores").
			Select(highscoreColumns).
			Joins("JOIN users ON users.id = highscores.user_id").
			Where("highscores.id = ?", hs.ID).
			Take(&entry).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("add highscore: %w", err)
	}
	return &entry, nil
}

func (r *GormRepo) GetHighscores(ctx context.Context) ([]models.HighscoreEntry, error) {
	out := []models.HighscoreEntry{}
	if err := r.entries(ctx).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("get highscores: %w", err)
	}
	return out, nil
}

func (r *GormRepo) GetUserHighscores(ctx context.Context, username string) ([]models.HighscoreEntry, error) {
	out := []models.HighscoreEntry{}
	if err := r.entries(ctx).Where("users.username = ?", username).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("get user highscores: %w", err)
	}
	return out, nil
}

func (r *GormRepo) GetTopHighscores(ctx context.Context, limit int) ([]models.HighscoreEntry, error) {
	out := []models.HighscoreEntry{}
	if err := r.entries(ctx).Limit(limit).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("get top highscores: %w", err)
	}
	return out, nil
}
