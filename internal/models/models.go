package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null"   json:"username"`
	PasswordHash string    `gorm:"not null"                        json:"-"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"         json:"created_at"`

	Highscores []Highscore `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

type Highscore struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null"           json:"user_id"`
	Score      int       `gorm:"index;not null"           json:"score"`
	AchievedAt time.Time `gorm:"not null"                 json:"achieved_at"`
}

// HighscoreEntry is a highscore joined with its owner's username.
type HighscoreEntry struct {
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	AchievedAt time.Time `json:"achieved_at"`
}
