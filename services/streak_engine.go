package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/utils"
)

// MilestoneDays are the streak lengths that get a celebration and a badge tier.
var MilestoneDays = []int{3, 7, 14, 30, 60, 90}

// CheckInOutcome describes what a check-in did to the period counter.
type CheckInOutcome string

const (
	OutcomeCreated   CheckInOutcome = "created"   // first record for the user
	OutcomeStarted   CheckInOutcome = "started"   // period never checked in before
	OutcomeContinued CheckInOutcome = "continued" // previous calendar day, +1
	OutcomeReset     CheckInOutcome = "reset"     // gap or invalid timestamp, back to 1
	OutcomeUnchanged CheckInOutcome = "unchanged" // already checked in today
)

const maxWriteAttempts = 3

// CheckInFailedMessage is the single generic message shown for any failed check-in.
const CheckInFailedMessage = "Could not save your check-in. Please try again."

// CheckInResult is returned from IncrementStreak.
type CheckInResult struct {
	Period                   models.Period       `json:"period"`
	Streaks                  models.StreakRecord `json:"streaks"`
	Overall                  int                 `json:"overall_streak"`
	Outcome                  CheckInOutcome      `json:"outcome"`
	IsFirstCheckIn           bool                `json:"is_first_check_in"`
	AllPeriodsCompletedToday bool                `json:"all_periods_completed_today"`
	Milestone                int                 `json:"milestone,omitempty"`
}

// StreakUpdatedFunc is the UI callback invoked after every successful check-in.
type StreakUpdatedFunc func(ctx context.Context, userID string, streaks models.StreakRecord, isFirstCheckIn, allPeriodsCompletedToday bool)

// StreakEngine decides whether a check-in continues, resets or leaves a
// streak alone, and persists the result.
type StreakEngine struct {
	store    StreakStore
	bus      *EventBus
	notifier Notifier
	loc      *time.Location
	log      *zap.Logger

	mu        sync.RWMutex
	snapshots map[string]models.StreakRecord
}

// NewStreakEngine wires the engine. loc defines calendar-day boundaries.
func NewStreakEngine(store StreakStore, bus *EventBus, notifier Notifier, loc *time.Location, logger *zap.Logger) *StreakEngine {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &StreakEngine{
		store:     store,
		bus:       bus,
		notifier:  notifier,
		loc:       loc,
		log:       logger,
		snapshots: make(map[string]models.StreakRecord),
	}
}

// IncrementStreak records a check-in for period at now. An empty userID is a
// no-op returning (nil, nil). Only storage failures are returned as errors.
func (e *StreakEngine) IncrementStreak(ctx context.Context, userID string, period models.Period, now time.Time) (*CheckInResult, error) {
	if userID == "" {
		return nil, nil
	}
	if _, _, err := periodColumns(period); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	var (
		prev    models.StreakRecord
		saved   models.StreakRecord
		outcome CheckInOutcome
		written bool
	)
	for attempt := 1; ; attempt++ {
		var exists bool
		var err error
		prev, exists, err = e.load(ctx, userID)
		if err != nil {
			return nil, e.fail(ctx, userID, period, err)
		}

		var next int
		next, outcome = e.nextStreak(userID, prev, period, now, exists)
		if outcome == OutcomeUnchanged {
			saved = prev
			break
		}

		rec := prev.WithCheckIn(period, next, now.UTC())
		if exists {
			saved, err = e.store.SavePeriod(ctx, rec, period)
		} else {
			saved, err = e.store.Create(ctx, rec)
		}
		if err == nil {
			written = true
			break
		}
		if !errors.Is(err, ErrStreakConflict) {
			return nil, e.fail(ctx, userID, period, err)
		}
		e.log.Info("streak write lost a race, re-reading",
			zap.String("user_id", userID), zap.String("period", string(period)), zap.Int("attempt", attempt))
		if attempt >= maxWriteAttempts {
			return nil, e.fail(ctx, userID, period, err)
		}
	}

	e.setSnapshot(saved)

	res := &CheckInResult{
		Period:                   period,
		Streaks:                  saved,
		Overall:                  CalculateOverallStreak(saved),
		Outcome:                  outcome,
		IsFirstCheckIn:           written && prev.IsEmpty(),
		AllPeriodsCompletedToday: e.allPeriodsToday(saved, now),
	}
	utils.CheckIns.WithLabelValues(string(period), string(outcome)).Inc()

	if written && isMilestone(saved.Streak(period)) {
		res.Milestone = saved.Streak(period)
		utils.Milestones.WithLabelValues(string(period)).Inc()
		e.notifier.ShowSuccess(ctx, userID, MilestoneMessage(period, res.Milestone))
	}

	if e.bus != nil {
		e.bus.Publish(ctx, Event{
			Type:   EventStreakUpdated,
			UserID: userID,
			Streak: &StreakUpdate{
				Period:                   res.Period,
				Streaks:                  res.Streaks,
				Overall:                  res.Overall,
				Outcome:                  res.Outcome,
				IsFirstCheckIn:           res.IsFirstCheckIn,
				AllPeriodsCompletedToday: res.AllPeriodsCompletedToday,
				Milestone:                res.Milestone,
			},
		})
	}
	return res, nil
}

// RefreshStreaks re-reads the user's record and replaces the in-memory snapshot.
func (e *StreakEngine) RefreshStreaks(ctx context.Context, userID string) (models.StreakRecord, error) {
	if userID == "" {
		return models.StreakRecord{}, nil
	}
	rec, _, err := e.load(ctx, userID)
	if err != nil {
		e.log.Error("refresh streaks failed", zap.String("user_id", userID), zap.Error(err))
		return models.StreakRecord{}, err
	}
	e.setSnapshot(rec)
	return rec, nil
}

// Snapshot returns the last known record for userID without touching storage.
func (e *StreakEngine) Snapshot(userID string) (models.StreakRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.snapshots[userID]
	return rec, ok
}

// OnStreakUpdated registers fn as a StreakUpdated subscriber. Panics inside fn
// are recovered and logged by the bus.
func (e *StreakEngine) OnStreakUpdated(fn StreakUpdatedFunc) func() {
	return e.bus.Subscribe(func(ctx context.Context, evt Event) error {
		if evt.Streak == nil {
			return nil
		}
		fn(ctx, evt.UserID, evt.Streak.Streaks, evt.Streak.IsFirstCheckIn, evt.Streak.AllPeriodsCompletedToday)
		return nil
	}, EventStreakUpdated)
}

// Location returns the calendar-day timezone.
func (e *StreakEngine) Location() *time.Location {
	return e.loc
}

func (e *StreakEngine) load(ctx context.Context, userID string) (models.StreakRecord, bool, error) {
	rec, err := e.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return models.StreakRecord{UserID: userID}, false, nil
	}
	if err != nil {
		return models.StreakRecord{}, false, err
	}
	return rec, true, nil
}

func (e *StreakEngine) nextStreak(userID string, prev models.StreakRecord, p models.Period, now time.Time, exists bool) (int, CheckInOutcome) {
	if !exists {
		return 1, OutcomeCreated
	}
	count := prev.Streak(p)
	last := prev.LastCheckIn(p)
	if last == nil {
		return 1, OutcomeStarted
	}

	days := CalendarDaysBetween(*last, now, e.loc)
	if last.IsZero() || days < 0 {
		e.log.Warn("invalid last check-in, resetting streak",
			zap.String("user_id", userID), zap.String("period", string(p)), zap.Time("last_check_in", *last))
		return 1, OutcomeReset
	}
	switch {
	case days == 0 && count > 0:
		return count, OutcomeUnchanged
	case days == 0:
		return 1, OutcomeStarted
	case days == 1:
		return count + 1, OutcomeContinued
	default:
		return 1, OutcomeReset
	}
}

func (e *StreakEngine) allPeriodsToday(rec models.StreakRecord, now time.Time) bool {
	for _, p := range models.AllPeriods {
		last := rec.LastCheckIn(p)
		if last == nil || last.IsZero() || CalendarDaysBetween(*last, now, e.loc) != 0 {
			return false
		}
	}
	return true
}

func (e *StreakEngine) fail(ctx context.Context, userID string, p models.Period, err error) error {
	utils.CheckIns.WithLabelValues(string(p), "failed").Inc()
	e.log.Error("check-in failed", zap.String("user_id", userID), zap.String("period", string(p)), zap.Error(err))
	e.notifier.ShowError(ctx, userID, CheckInFailedMessage)
	return err
}

func (e *StreakEngine) setSnapshot(rec models.StreakRecord) {
	e.mu.Lock()
	e.snapshots[rec.UserID] = rec
	e.mu.Unlock()
}

// CalendarDaysBetween counts calendar-day boundaries from a to b in loc.
// Same day is 0, yesterday-to-today is 1; negative when a is on a later day.
func CalendarDaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// CalculateOverallStreak is the headline streak shown on every surface: the
// longest of the three period streaks.
func CalculateOverallStreak(rec models.StreakRecord) int {
	overall := rec.MorningStreak
	if rec.AfternoonStreak > overall {
		overall = rec.AfternoonStreak
	}
	if rec.EveningStreak > overall {
		overall = rec.EveningStreak
	}
	return overall
}

// MilestoneMessage is the celebration text for a milestone streak.
func MilestoneMessage(p models.Period, days int) string {
	return fmt.Sprintf("%d day %s streak achieved!", days, p)
}

func isMilestone(n int) bool {
	for _, m := range MilestoneDays {
		if n == m {
			return true
		}
	}
	return false
}
