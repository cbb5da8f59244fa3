package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is stored as a JSON-encoded text column so the same model works
// on postgres and the sqlite test driver.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:50;unique;not null"  json:"username"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FullName     string    `gorm:"size:100"                 json:"full_name"`
	Bio          string    `gorm:"size:500"                 json:"bio"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

type Recipe struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title        string     `gorm:"size:200;not null"        json:"title"`
	Description  string     `gorm:"size:1000;not null"       json:"description"`
	Ingredients  StringList `gorm:"type:text"                json:"ingredients"`
	Instructions StringList `gorm:"type:text"                json:"instructions"`
	CookTime     int        `gorm:"not null"                 json:"cook_time"`
	Servings     int        `gorm:"not null"                 json:"servings"`
	Difficulty   string     `gorm:"size:16"                  json:"difficulty"`
	Category     string     `gorm:"size:32"                  json:"category"`
	Image        string     `json:"image"`
	AuthorID     uint       `gorm:"index;not null"           json:"author_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `gorm:"size:1000;not null"       json:"comment"`
	RecipeID  uint      `gorm:"index;not null"           json:"recipe_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Like rows are unique per (user, recipe); the second like of the same
// recipe is a conflict, not an update.
type Like struct {
	ID       uint `gorm:"primaryKey;autoIncrement"                json:"id"`
	UserID   uint `gorm:"uniqueIndex:idx_like_user_recipe;not null" json:"user_id"`
	RecipeID uint `gorm:"uniqueIndex:idx_like_user_recipe;not null" json:"recipe_id"`
}

const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

var Difficulties = map[string]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

var Categories = map[string]bool{
	"MAIN_COURSE": true,
	"DESSERT":     true,
	"HEALTHY":     true,
	"BREAKFAST":   true,
	"SNACK":       true,
	"APPETIZER":   true,
	"SOUP":        true,
	"SALAD":       true,
}
