package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge categories.
const (
	CategoryStreak     = "streak"
	CategoryCompletion = "completion"
	CategoryEmotion    = "emotion"
)

// Badge is a catalog entry. Name is the catalog key.
type Badge struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:32;index" json:"category"`
	IconName    string    `gorm:"size:64" json:"icon_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Badge.
func (Badge) TableName() string {
	return "badges"
}

// BeforeCreate assigns a UUID when none was provided.
func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// UserBadge records that a user earned a badge. At most one row exists per
// (user_id, badge_id).
type UserBadge struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_user_badges_user_badge" json:"user_id"`
	BadgeID   string    `gorm:"size:36;not null;uniqueIndex:idx_user_badges_user_badge;index" json:"badge_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for UserBadge.
func (UserBadge) TableName() string {
	return "user_badges"
}

// BeforeCreate assigns a UUID and creation time.
func (g *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	return nil
}
