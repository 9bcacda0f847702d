package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/moodstreak/models"
)

// BadgeStore reads and writes catalog definitions.
type BadgeStore interface {
	CountBadges(ctx context.Context) (int64, error)
	FindBadgeByName(ctx context.Context, name string) (models.Badge, error)
	FindBadgeByID(ctx context.Context, id string) (models.Badge, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	// InsertBadges returns ErrDuplicate when any name already exists.
	InsertBadges(ctx context.Context, badges []models.Badge) error
}

// GrantStore reads and writes user badge grants.
type GrantStore interface {
	HasGrant(ctx context.Context, userID, badgeID string) (bool, error)
	// InsertGrant returns ErrDuplicate when the pair already exists.
	InsertGrant(ctx context.Context, grant *models.UserBadge) error
	ListGrants(ctx context.Context, userID string) ([]models.UserBadge, error)
}

// GormBadgeStore implements BadgeStore and GrantStore on the badges and
// user_badges tables.
type GormBadgeStore struct {
	db *gorm.DB
}

func NewGormBadgeStore(db *gorm.DB) *GormBadgeStore {
	return &GormBadgeStore{db: db}
}

func (s *GormBadgeStore) CountBadges(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Badge{}).Count(&n).Error; err != nil {
		return 0, storageErr("count badges", err)
	}
	return n, nil
}

func (s *GormBadgeStore) FindBadgeByName(ctx context.Context, name string) (models.Badge, error) {
	return s.findBadge(ctx, "name = ?", name)
}

func (s *GormBadgeStore) FindBadgeByID(ctx context.Context, id string) (models.Badge, error) {
	return s.findBadge(ctx, "id = ?", id)
}

func (s *GormBadgeStore) findBadge(ctx context.Context, query string, arg string) (models.Badge, error) {
	var b models.Badge
	err := s.db.WithContext(ctx).Where(query, arg).First(&b).Error
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.Badge{}, ErrNotFound
	default:
		return models.Badge{}, storageErr("load badge", err)
	}
}

func (s *GormBadgeStore) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var items []models.Badge
	if err := s.db.WithContext(ctx).Order("category asc, created_at asc, name asc").Find(&items).Error; err != nil {
		return nil, storageErr("list badges", err)
	}
	return items, nil
}

func (s *GormBadgeStore) InsertBadges(ctx context.Context, badges []models.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&badges, 50).Error
	})
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return storageErr("insert badges", err)
}

func (s *GormBadgeStore) HasGrant(ctx context.Context, userID, badgeID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&n).Error
	if err != nil {
		return false, storageErr("check grant", err)
	}
	return n > 0, nil
}

func (s *GormBadgeStore) InsertGrant(ctx context.Context, grant *models.UserBadge) error {
	err := s.db.WithContext(ctx).Create(grant).Error
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return storageErr("insert grant", err)
}

func (s *GormBadgeStore) ListGrants(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var items []models.UserBadge
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error
	if err != nil {
		return nil, storageErr("list grants", err)
	}
	return items, nil
}
