package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/moodstreak/config"
	"github.com/cppla/moodstreak/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   "file:" + name + "?mode=memory&cache=shared",
		LogLevel: "silent",
	}, &models.CheckInStreak{}, &models.Badge{}, &models.UserBadge{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) ShowSuccess(_ context.Context, _ string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) ShowError(_ context.Context, _ string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) Successes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...)
}

func (n *recordingNotifier) Errors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

type streakFixture struct {
	db       *gorm.DB
	store    *GormStreakStore
	bus      *EventBus
	notifier *recordingNotifier
	engine   *StreakEngine
}

func newStreakFixture(t *testing.T) *streakFixture {
	t.Helper()
	db := newTestDB(t)
	f := &streakFixture{
		db:       db,
		store:    NewGormStreakStore(db),
		bus:      NewEventBus(nil),
		notifier: &recordingNotifier{},
	}
	f.engine = NewStreakEngine(f.store, f.bus, f.notifier, time.UTC, nil)
	return f
}

// seed writes a row the way another client would have left it.
func (f *streakFixture) seed(t *testing.T, row models.CheckInStreak) {
	t.Helper()
	if row.Revision == 0 {
		row.Revision = 1
	}
	require.NoError(t, f.db.Create(&row).Error)
}

func (f *streakFixture) stored(t *testing.T, userID string) models.StreakRecord {
	t.Helper()
	rec, err := f.store.Get(context.Background(), userID)
	require.NoError(t, err)
	return rec
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// noon is a fixed reference instant far from any day boundary.
var noon = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
