package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/utils"
)

// Completion badge names.
const (
	WelcomeBadge      = "Welcome Badge"
	FirstCheckInBadge = "First Check-in"
	PerfectDayBadge   = "Perfect Day"
)

const badgeCachePrefix = "badge:"

// BadgeDefinition is the catalog shape before it is stored.
type BadgeDefinition struct {
	Name        string
	Description string
	Category    string
	IconName    string
}

// StreakBadgeName is the catalog key for a period streak tier, e.g. "7-Day Morning Streak".
func StreakBadgeName(p models.Period, days int) string {
	return fmt.Sprintf("%d-Day %s Streak", days, p.Title())
}

var periodIcons = map[models.Period]string{
	models.PeriodMorning:   "sunny-outline",
	models.PeriodAfternoon: "partly-sunny-outline",
	models.PeriodEvening:   "moon-outline",
}

// DefaultCatalog returns the full fixed catalog in insertion order.
func DefaultCatalog() []BadgeDefinition {
	defs := []BadgeDefinition{
		{WelcomeBadge, "Opened the journal for the first time.", models.CategoryCompletion, "hand-left-outline"},
		{FirstCheckInBadge, "Logged your very first mood check-in.", models.CategoryCompletion, "checkmark-circle-outline"},
		{PerfectDayBadge, "Checked in morning, afternoon and evening on the same day.", models.CategoryCompletion, "trophy-outline"},
	}
	for _, p := range models.AllPeriods {
		for _, days := range MilestoneDays {
			defs = append(defs, BadgeDefinition{
				Name:        StreakBadgeName(p, days),
				Description: fmt.Sprintf("Checked in every %s for %d days in a row.", p, days),
				Category:    models.CategoryStreak,
				IconName:    periodIcons[p],
			})
		}
	}
	defs = append(defs,
		BadgeDefinition{"Joy Seeker", "Recorded a joyful mood.", models.CategoryEmotion, "happy-outline"},
		BadgeDefinition{"Calm Mind", "Recorded a calm mood.", models.CategoryEmotion, "leaf-outline"},
		BadgeDefinition{"Brave Heart", "Wrote through a difficult day.", models.CategoryEmotion, "heart-outline"},
		BadgeDefinition{"Grateful Soul", "Recorded something you are grateful for.", models.CategoryEmotion, "flower-outline"},
		BadgeDefinition{"Self Reflector", "Named five different emotions.", models.CategoryEmotion, "color-palette-outline"},
	)
	return defs
}

func (d BadgeDefinition) badge() models.Badge {
	return models.Badge{
		Name:        utils.Sanitize(d.Name),
		Description: utils.Sanitize(d.Description),
		Category:    d.Category,
		IconName:    d.IconName,
	}
}

// BadgeCatalog owns badge definitions and their lazy creation.
type BadgeCatalog struct {
	store BadgeStore
	cache *utils.Cache
	log   *zap.Logger
}

// NewBadgeCatalog creates a catalog; cache and logger may be nil.
func NewBadgeCatalog(store BadgeStore, cache *utils.Cache, logger *zap.Logger) *BadgeCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeCatalog{store: store, cache: cache, log: logger}
}

// EnsureBadgeExists inserts the definition unless a badge with that name exists.
// Losing a concurrent insert race is not an error.
func (c *BadgeCatalog) EnsureBadgeExists(ctx context.Context, def BadgeDefinition) (models.Badge, error) {
	b := def.badge()
	if b.Name == "" {
		return models.Badge{}, fmt.Errorf("badge name is required")
	}
	existing, err := c.store.FindBadgeByName(ctx, b.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		c.log.Error("ensure badge lookup failed", zap.String("badge", b.Name), zap.Error(err))
		return models.Badge{}, err
	}

	err = c.store.InsertBadges(ctx, []models.Badge{b})
	if errors.Is(err, ErrDuplicate) {
		c.log.Info("badge created concurrently", zap.String("badge", b.Name))
		return c.store.FindBadgeByName(ctx, b.Name)
	}
	if err != nil {
		c.log.Error("ensure badge insert failed", zap.String("badge", b.Name), zap.Error(err))
		return models.Badge{}, err
	}
	c.cache.InvalidateByPrefix(ctx, badgeCachePrefix)
	return c.store.FindBadgeByName(ctx, b.Name)
}

// InitializeCatalog bulk-creates DefaultCatalog when the badges table is empty.
// It reports whether anything was created.
func (c *BadgeCatalog) InitializeCatalog(ctx context.Context) (bool, error) {
	n, err := c.store.CountBadges(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		c.log.Debug("badge catalog already initialized", zap.Int64("badges", n))
		return false, nil
	}

	defs := DefaultCatalog()
	rows := make([]models.Badge, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, d.badge())
	}
	err = c.store.InsertBadges(ctx, rows)
	if errors.Is(err, ErrDuplicate) {
		// another instance is bootstrapping at the same time
		c.log.Info("catalog bootstrap raced, filling gaps one by one")
		for _, d := range defs {
			if _, err := c.EnsureBadgeExists(ctx, d); err != nil {
				return false, err
			}
		}
		err = nil
	}
	if err != nil {
		c.log.Error("catalog bootstrap failed", zap.Error(err))
		return false, err
	}
	c.cache.InvalidateByPrefix(ctx, badgeCachePrefix)
	c.log.Info("badge catalog initialized", zap.Int("badges", len(rows)))
	return true, nil
}

// GetBadgeByName resolves a catalog key. ErrBadgeNotFound when absent.
func (c *BadgeCatalog) GetBadgeByName(ctx context.Context, name string) (models.Badge, error) {
	return c.lookup(ctx, badgeCachePrefix+"name:"+name, func() (models.Badge, error) {
		return c.store.FindBadgeByName(ctx, name)
	})
}

// GetBadgeByID resolves a badge id. ErrBadgeNotFound when absent.
func (c *BadgeCatalog) GetBadgeByID(ctx context.Context, id string) (models.Badge, error) {
	return c.lookup(ctx, badgeCachePrefix+"id:"+id, func() (models.Badge, error) {
		return c.store.FindBadgeByID(ctx, id)
	})
}

func (c *BadgeCatalog) lookup(ctx context.Context, key string, load func() (models.Badge, error)) (models.Badge, error) {
	var b models.Badge
	if c.cache.GetJSON(ctx, key, &b) {
		return b, nil
	}
	b, err := load()
	if errors.Is(err, ErrNotFound) {
		return models.Badge{}, ErrBadgeNotFound
	}
	if err != nil {
		return models.Badge{}, err
	}
	c.cache.SetJSON(ctx, key, b, 0)
	return b, nil
}

// ListBadges returns every catalog entry.
func (c *BadgeCatalog) ListBadges(ctx context.Context) ([]models.Badge, error) {
	key := badgeCachePrefix + "list"
	var items []models.Badge
	if c.cache.GetJSON(ctx, key, &items) {
		return items, nil
	}
	items, err := c.store.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetJSON(ctx, key, items, 0)
	return items, nil
}

// WarmCache reloads the catalog list and per-badge entries into the cache.
func (c *BadgeCatalog) WarmCache(ctx context.Context) error {
	if !c.cache.Enabled() {
		return nil
	}
	items, err := c.store.ListBadges(ctx)
	if err != nil {
		c.log.Warn("catalog cache warm failed", zap.Error(err))
		return err
	}
	c.cache.SetJSON(ctx, badgeCachePrefix+"list", items, 0)
	for _, b := range items {
		c.cache.SetJSON(ctx, badgeCachePrefix+"name:"+b.Name, b, 0)
		c.cache.SetJSON(ctx, badgeCachePrefix+"id:"+b.ID, b, 0)
	}
	c.log.Debug("catalog cache warmed", zap.Int("badges", len(items)))
	return nil
}
