package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/moodstreak/models"
)

type achievementFixture struct {
	*streakFixture
	badges *GormBadgeStore
	awards *AwardEngine
	agg    *AchievementAggregator
}

func newAchievementFixture(t *testing.T) *achievementFixture {
	t.Helper()
	sf := newStreakFixture(t)
	badges := NewGormBadgeStore(sf.db)
	catalog := NewBadgeCatalog(badges, nil, nil)
	_, err := catalog.InitializeCatalog(context.Background())
	require.NoError(t, err)
	awards := NewAwardEngine(catalog, badges, nil)
	agg := NewAchievementAggregator(awards, nil)
	agg.Attach(sf.bus)
	return &achievementFixture{streakFixture: sf, badges: badges, awards: awards, agg: agg}
}

func (f *achievementFixture) badgeNames(t *testing.T, userID string) []string {
	t.Helper()
	views, err := f.awards.ListUserBadges(context.Background(), userID)
	require.NoError(t, err)
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Badge.Name)
	}
	return names
}

func TestAggregator_FirstCheckInAwardsOneShotBadges(t *testing.T) {
	f := newAchievementFixture(t)

	_, err := f.engine.IncrementStreak(context.Background(), "u1", models.PeriodMorning, noon)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{FirstCheckInBadge, WelcomeBadge}, f.badgeNames(t, "u1"))
}

func TestAggregator_StreakTierAwardedOnMilestone(t *testing.T) {
	f := newAchievementFixture(t)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		_, err := f.engine.IncrementStreak(ctx, "u1", models.PeriodEvening, noon.AddDate(0, 0, day))
		require.NoError(t, err)
	}
	assert.Contains(t, f.badgeNames(t, "u1"), StreakBadgeName(models.PeriodEvening, 3))
	assert.NotContains(t, f.badgeNames(t, "u1"), StreakBadgeName(models.PeriodEvening, 7))

	// a further same-day check-in re-runs the checks without duplicating grants
	before := len(f.badgeNames(t, "u1"))
	_, err := f.engine.IncrementStreak(ctx, "u1", models.PeriodEvening, noon.AddDate(0, 0, 2).Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, f.badgeNames(t, "u1"), before)
}

func TestAggregator_PerfectDay(t *testing.T) {
	f := newAchievementFixture(t)
	ctx := context.Background()

	for i, p := range models.AllPeriods {
		_, err := f.engine.IncrementStreak(ctx, "u1", p, noon.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	assert.Contains(t, f.badgeNames(t, "u1"), PerfectDayBadge)
}

func TestAggregator_AwardFailureDoesNotFailCheckIn(t *testing.T) {
	f := newStreakFixture(t)
	catalog := NewBadgeCatalog(NewGormBadgeStore(f.db), nil, nil)
	_, err := catalog.InitializeCatalog(context.Background())
	require.NoError(t, err)
	grants := &failingGrants{err: storageErr("insert grant", errors.New("disk full"))}
	NewAchievementAggregator(NewAwardEngine(catalog, grants, nil), nil).Attach(f.bus)

	res, err := f.engine.IncrementStreak(context.Background(), "u1", models.PeriodMorning, noon)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Streaks.MorningStreak)
	assert.Equal(t, 1, f.stored(t, "u1").MorningStreak)
	assert.Positive(t, grants.inserts)
}

func TestAggregator_HandleStreakUpdatedIgnoresOtherPayloads(t *testing.T) {
	f := newAchievementFixture(t)
	assert.NoError(t, f.agg.HandleStreakUpdated(context.Background(), Event{Type: EventNotification, UserID: "u1"}))
	assert.Empty(t, f.badgeNames(t, "u1"))
}

func TestAggregator_SessionStarted(t *testing.T) {
	f := newAchievementFixture(t)
	ctx := context.Background()

	require.NoError(t, f.agg.SessionStarted(ctx, "u1"))
	require.NoError(t, f.agg.SessionStarted(ctx, "u1"))
	require.NoError(t, f.agg.SessionStarted(ctx, ""))
	assert.Equal(t, []string{WelcomeBadge}, f.badgeNames(t, "u1"))
}
