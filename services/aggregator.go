package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// AchievementAggregator turns StreakUpdated events into badge checks. It owns
// no storage.
type AchievementAggregator struct {
	awards *AwardEngine
	log    *zap.Logger
}

func NewAchievementAggregator(awards *AwardEngine, logger *zap.Logger) *AchievementAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AchievementAggregator{awards: awards, log: logger}
}

// Attach subscribes the aggregator to StreakUpdated events on bus.
func (a *AchievementAggregator) Attach(bus *EventBus) func() {
	return bus.Subscribe(a.HandleStreakUpdated, EventStreakUpdated)
}

// HandleStreakUpdated runs every badge check the update qualifies for. All
// checks run even when an earlier one fails; failures are joined.
func (a *AchievementAggregator) HandleStreakUpdated(ctx context.Context, evt Event) error {
	if evt.Streak == nil || evt.UserID == "" {
		return nil
	}
	award := a.awards.Awarder(evt.UserID)
	u := evt.Streak

	errs := []error{CheckStreakBadges(ctx, u.Streaks, award)}
	if u.AllPeriodsCompletedToday {
		errs = append(errs, CheckAllPeriodsCompleted(ctx, award))
	}
	if u.IsFirstCheckIn {
		errs = append(errs,
			AwardFirstCheckInBadge(ctx, award),
			AwardWelcomeBadge(ctx, award))
	}
	err := errors.Join(errs...)
	if err != nil {
		a.log.Warn("badge checks incomplete, next check-in retries",
			zap.String("user_id", evt.UserID), zap.Error(err))
	}
	return err
}

// SessionStarted handles the user's first app session.
func (a *AchievementAggregator) SessionStarted(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return AwardWelcomeBadge(ctx, a.awards.Awarder(userID))
}
