package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/moodstreak/models"
)

// StreakStore persists StreakRecords. Writes are conditional on the record's
// Revision so concurrent writers cannot silently overwrite each other.
type StreakStore interface {
	// Get returns ErrNotFound when the user has never checked in.
	Get(ctx context.Context, userID string) (models.StreakRecord, error)
	// Create inserts the first record for a user. ErrStreakConflict if one already exists.
	Create(ctx context.Context, rec models.StreakRecord) (models.StreakRecord, error)
	// SavePeriod writes one period's counter and last check-in if the stored
	// revision still equals rec.Revision. ErrStreakConflict otherwise.
	SavePeriod(ctx context.Context, rec models.StreakRecord, p models.Period) (models.StreakRecord, error)
}

// GormStreakStore is the check_in_streaks table.
type GormStreakStore struct {
	db *gorm.DB
}

func NewGormStreakStore(db *gorm.DB) *GormStreakStore {
	return &GormStreakStore{db: db}
}

func (s *GormStreakStore) Get(ctx context.Context, userID string) (models.StreakRecord, error) {
	var row models.CheckInStreak
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	switch {
	case err == nil:
		return row.Record(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.StreakRecord{}, ErrNotFound
	default:
		return models.StreakRecord{}, storageErr("load streaks", err)
	}
}

func (s *GormStreakStore) Create(ctx context.Context, rec models.StreakRecord) (models.StreakRecord, error) {
	rec.Revision = 1
	row := rec.Row()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return models.StreakRecord{}, ErrStreakConflict
		}
		return models.StreakRecord{}, storageErr("create streaks", err)
	}
	return rec, nil
}

func (s *GormStreakStore) SavePeriod(ctx context.Context, rec models.StreakRecord, p models.Period) (models.StreakRecord, error) {
	countCol, lastCol, err := periodColumns(p)
	if err != nil {
		return models.StreakRecord{}, err
	}
	res := s.db.WithContext(ctx).
		Model(&models.CheckInStreak{}).
		Where("user_id = ? AND revision = ?", rec.UserID, rec.Revision).
		Updates(map[string]interface{}{
			countCol:     rec.Streak(p),
			lastCol:      rec.LastCheckIn(p),
			"revision":   rec.Revision + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return models.StreakRecord{}, storageErr("save streaks", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.StreakRecord{}, ErrStreakConflict
	}
	rec.Revision++
	return rec, nil
}

func periodColumns(p models.Period) (string, string, error) {
	switch p {
	case models.PeriodMorning:
		return "morning_streak", "last_morning_check_in", nil
	case models.PeriodAfternoon:
		return "afternoon_streak", "last_afternoon_check_in", nil
	case models.PeriodEvening:
		return "evening_streak", "last_evening_check_in", nil
	}
	return "", "", ErrInvalidPeriod
}
