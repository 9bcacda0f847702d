package models

import "time"

// CheckInStreak is the persisted per-user streak row. Counters are nullable in
// storage; use Record to get the defaulted view.
type CheckInStreak struct {
	UserID               string     `gorm:"primaryKey;size:64" json:"user_id"`
	MorningStreak        *int       `json:"morning_streak"`
	AfternoonStreak      *int       `json:"afternoon_streak"`
	EveningStreak        *int       `json:"evening_streak"`
	LastMorningCheckIn   *time.Time `json:"last_morning_check_in"`
	LastAfternoonCheckIn *time.Time `json:"last_afternoon_check_in"`
	LastEveningCheckIn   *time.Time `json:"last_evening_check_in"`
	Revision             int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName keeps the table name stable across drivers.
func (CheckInStreak) TableName() string {
	return "check_in_streaks"
}

// StreakRecord is the engine-facing view of a user's streaks. Counters are
// never negative; a nil last check-in means the period was never checked in.
type StreakRecord struct {
	UserID               string     `json:"user_id"`
	MorningStreak        int        `json:"morning_streak"`
	AfternoonStreak      int        `json:"afternoon_streak"`
	EveningStreak        int        `json:"evening_streak"`
	LastMorningCheckIn   *time.Time `json:"last_morning_check_in"`
	LastAfternoonCheckIn *time.Time `json:"last_afternoon_check_in"`
	LastEveningCheckIn   *time.Time `json:"last_evening_check_in"`
	Revision             int64      `json:"-"`
}

// Record converts a storage row into a StreakRecord, treating null or
// negative counters as 0.
func (c *CheckInStreak) Record() StreakRecord {
	return StreakRecord{
		UserID:               c.UserID,
		MorningStreak:        nonNegative(c.MorningStreak),
		AfternoonStreak:      nonNegative(c.AfternoonStreak),
		EveningStreak:        nonNegative(c.EveningStreak),
		LastMorningCheckIn:   c.LastMorningCheckIn,
		LastAfternoonCheckIn: c.LastAfternoonCheckIn,
		LastEveningCheckIn:   c.LastEveningCheckIn,
		Revision:             c.Revision,
	}
}

// Row converts the record back into its storage shape.
func (r StreakRecord) Row() CheckInStreak {
	m, a, e := r.MorningStreak, r.AfternoonStreak, r.EveningStreak
	return CheckInStreak{
		UserID:               r.UserID,
		MorningStreak:        &m,
		AfternoonStreak:      &a,
		EveningStreak:        &e,
		LastMorningCheckIn:   r.LastMorningCheckIn,
		LastAfternoonCheckIn: r.LastAfternoonCheckIn,
		LastEveningCheckIn:   r.LastEveningCheckIn,
		Revision:             r.Revision,
	}
}

// Streak returns the counter for a period.
func (r StreakRecord) Streak(p Period) int {
	switch p {
	case PeriodMorning:
		return r.MorningStreak
	case PeriodAfternoon:
		return r.AfternoonStreak
	case PeriodEvening:
		return r.EveningStreak
	}
	return 0
}

// LastCheckIn returns the last check-in time for a period.
func (r StreakRecord) LastCheckIn(p Period) *time.Time {
	switch p {
	case PeriodMorning:
		return r.LastMorningCheckIn
	case PeriodAfternoon:
		return r.LastAfternoonCheckIn
	case PeriodEvening:
		return r.LastEveningCheckIn
	}
	return nil
}

// WithCheckIn returns a copy with the period's counter and last check-in replaced.
func (r StreakRecord) WithCheckIn(p Period, streak int, at time.Time) StreakRecord {
	t := at
	switch p {
	case PeriodMorning:
		r.MorningStreak, r.LastMorningCheckIn = streak, &t
	case PeriodAfternoon:
		r.AfternoonStreak, r.LastAfternoonCheckIn = streak, &t
	case PeriodEvening:
		r.EveningStreak, r.LastEveningCheckIn = streak, &t
	}
	return r
}

// IsEmpty reports whether every period counter is zero.
func (r StreakRecord) IsEmpty() bool {
	return r.MorningStreak == 0 && r.AfternoonStreak == 0 && r.EveningStreak == 0
}

func nonNegative(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
