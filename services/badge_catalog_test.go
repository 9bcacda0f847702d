package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/moodstreak/models"
)

func newCatalog(t *testing.T) (*BadgeCatalog, *GormBadgeStore) {
	t.Helper()
	store := NewGormBadgeStore(newTestDB(t))
	return NewBadgeCatalog(store, nil, nil), store
}

func TestStreakBadgeName(t *testing.T) {
	assert.Equal(t, "7-Day Morning Streak", StreakBadgeName(models.PeriodMorning, 7))
	assert.Equal(t, "90-Day Evening Streak", StreakBadgeName(models.PeriodEvening, 90))
}

func TestDefaultCatalog_HasEveryStreakTier(t *testing.T) {
	names := map[string]BadgeDefinition{}
	for _, d := range DefaultCatalog() {
		_, dup := names[d.Name]
		require.False(t, dup, "duplicate catalog name %q", d.Name)
		names[d.Name] = d
	}
	for _, p := range models.AllPeriods {
		for _, days := range MilestoneDays {
			d, ok := names[StreakBadgeName(p, days)]
			require.True(t, ok)
			assert.Equal(t, models.CategoryStreak, d.Category)
		}
	}
	for _, n := range []string{WelcomeBadge, FirstCheckInBadge, PerfectDayBadge} {
		assert.Equal(t, models.CategoryCompletion, names[n].Category)
	}
}

func TestInitializeCatalog_BootstrapsOnce(t *testing.T) {
	catalog, store := newCatalog(t)
	ctx := context.Background()

	created, err := catalog.InitializeCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	n, err := store.CountBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(DefaultCatalog())), n)

	created, err = catalog.InitializeCatalog(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	n, _ = store.CountBadges(ctx)
	assert.Equal(t, int64(len(DefaultCatalog())), n)
}

func TestInitializeCatalog_SkipsPopulatedTable(t *testing.T) {
	catalog, store := newCatalog(t)
	ctx := context.Background()

	_, err := catalog.EnsureBadgeExists(ctx, BadgeDefinition{Name: "Legacy", Category: models.CategoryEmotion})
	require.NoError(t, err)

	created, err := catalog.InitializeCatalog(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	n, _ := store.CountBadges(ctx)
	assert.Equal(t, int64(1), n)
}

func TestEnsureBadgeExists_RepeatedAndConcurrent(t *testing.T) {
	catalog, store := newCatalog(t)
	ctx := context.Background()
	def := BadgeDefinition{Name: "Night Owl", Description: "Late writer", Category: models.CategoryCompletion, IconName: "moon-outline"}

	first, err := catalog.EnsureBadgeExists(ctx, def)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := catalog.EnsureBadgeExists(ctx, def)
			assert.NoError(t, err)
			assert.Equal(t, first.ID, b.ID)
		}()
	}
	wg.Wait()

	n, _ := store.CountBadges(ctx)
	assert.Equal(t, int64(1), n)
}

func TestEnsureBadgeExists_SanitizesText(t *testing.T) {
	catalog, _ := newCatalog(t)

	b, err := catalog.EnsureBadgeExists(context.Background(), BadgeDefinition{
		Name:        "Sunny <b>Side</b>",
		Description: `Bright & early<script>alert(1)</script>`,
		Category:    models.CategoryEmotion,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sunny Side", b.Name)
	assert.Equal(t, "Bright & early", b.Description)
}

func TestGetBadge_Lookups(t *testing.T) {
	catalog, _ := newCatalog(t)
	ctx := context.Background()
	_, err := catalog.InitializeCatalog(ctx)
	require.NoError(t, err)

	byName, err := catalog.GetBadgeByName(ctx, FirstCheckInBadge)
	require.NoError(t, err)
	byID, err := catalog.GetBadgeByID(ctx, byName.ID)
	require.NoError(t, err)
	assert.Equal(t, byName.Name, byID.Name)

	_, err = catalog.GetBadgeByName(ctx, "Unicorn")
	assert.ErrorIs(t, err, ErrBadgeNotFound)
	_, err = catalog.GetBadgeByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrBadgeNotFound)

	all, err := catalog.ListBadges(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultCatalog()))
}

func TestWarmCache_NoRedisIsNoOp(t *testing.T) {
	catalog, _ := newCatalog(t)
	assert.NoError(t, catalog.WarmCache(context.Background()))
}
