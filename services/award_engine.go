package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/utils"
)

// AwardOutcome says how an awardBadge call ended.
type AwardOutcome string

const (
	AwardSkipped      AwardOutcome = "skipped"       // no signed-in user
	AwardUnknownBadge AwardOutcome = "unknown_badge" // name missing from catalog
	AwardAlreadyHeld  AwardOutcome = "already_held"
	AwardGranted      AwardOutcome = "granted"
	AwardRaceLost     AwardOutcome = "race_lost" // a concurrent call inserted first
	AwardFailed       AwardOutcome = "failed"
)

// AwardFunc grants one badge by name to a user bound by the caller.
type AwardFunc func(ctx context.Context, badgeName string) error

// UserBadgeView is a grant joined with its badge definition.
type UserBadgeView struct {
	ID        string       `json:"id"`
	BadgeID   string       `json:"badge_id"`
	Badge     models.Badge `json:"badge"`
	CreatedAt time.Time    `json:"created_at"`
}

// AwardEngine grants badges idempotently: at most one grant per user and badge.
type AwardEngine struct {
	catalog *BadgeCatalog
	grants  GrantStore
	log     *zap.Logger
}

func NewAwardEngine(catalog *BadgeCatalog, grants GrantStore, logger *zap.Logger) *AwardEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AwardEngine{catalog: catalog, grants: grants, log: logger}
}

// AwardBadge grants badgeName to userID unless it is already held. A lost
// insert race counts as success. Storage failures are returned and not retried.
func (a *AwardEngine) AwardBadge(ctx context.Context, userID, badgeName string) (AwardOutcome, error) {
	outcome, err := a.award(ctx, userID, badgeName)
	utils.BadgeAwards.WithLabelValues(string(outcome)).Inc()
	return outcome, err
}

func (a *AwardEngine) award(ctx context.Context, userID, badgeName string) (AwardOutcome, error) {
	if userID == "" {
		return AwardSkipped, nil
	}
	badge, err := a.catalog.GetBadgeByName(ctx, badgeName)
	if errors.Is(err, ErrBadgeNotFound) {
		a.log.Error("award references unknown badge, catalog not initialized?", zap.String("badge", badgeName))
		return AwardUnknownBadge, ErrBadgeNotFound
	}
	if err != nil {
		a.log.Error("award badge lookup failed", zap.String("user_id", userID), zap.String("badge", badgeName), zap.Error(err))
		return AwardFailed, err
	}

	held, err := a.grants.HasGrant(ctx, userID, badge.ID)
	if err != nil {
		a.log.Error("award grant check failed", zap.String("user_id", userID), zap.String("badge", badgeName), zap.Error(err))
		return AwardFailed, err
	}
	if held {
		return AwardAlreadyHeld, nil
	}

	err = a.grants.InsertGrant(ctx, &models.UserBadge{UserID: userID, BadgeID: badge.ID})
	switch {
	case err == nil:
		a.log.Info("badge granted", zap.String("user_id", userID), zap.String("badge", badgeName))
		return AwardGranted, nil
	case errors.Is(err, ErrDuplicate):
		a.log.Info("badge grant raced, already granted", zap.String("user_id", userID), zap.String("badge", badgeName))
		return AwardRaceLost, nil
	default:
		a.log.Error("award grant insert failed", zap.String("user_id", userID), zap.String("badge", badgeName), zap.Error(err))
		return AwardFailed, err
	}
}

// Awarder binds AwardBadge to userID. Unknown badges are already logged by
// AwardBadge and are not reported to the caller.
func (a *AwardEngine) Awarder(userID string) AwardFunc {
	return func(ctx context.Context, badgeName string) error {
		_, err := a.AwardBadge(ctx, userID, badgeName)
		if errors.Is(err, ErrBadgeNotFound) {
			return nil
		}
		return err
	}
}

// AddUserBadge grants badgeName on request of the user. Unlike Awarder it
// reports unknown badges.
func (a *AwardEngine) AddUserBadge(ctx context.Context, userID, badgeName string) (AwardOutcome, error) {
	return a.AwardBadge(ctx, userID, badgeName)
}

// ListUserBadges returns the user's grants with their definitions, oldest first.
func (a *AwardEngine) ListUserBadges(ctx context.Context, userID string) ([]UserBadgeView, error) {
	if userID == "" {
		return nil, nil
	}
	grants, err := a.grants.ListGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]UserBadgeView, 0, len(grants))
	for _, g := range grants {
		badge, err := a.catalog.GetBadgeByID(ctx, g.BadgeID)
		if errors.Is(err, ErrBadgeNotFound) {
			a.log.Warn("grant references missing badge", zap.String("user_id", userID), zap.String("badge_id", g.BadgeID))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, UserBadgeView{
			ID:        g.ID,
			BadgeID:   g.BadgeID,
			Badge:     badge,
			CreatedAt: g.CreatedAt,
		})
	}
	return out, nil
}

// CheckStreakBadges attempts every tier the streaks qualify for, every call.
// Idempotency of the award makes re-attempts harmless.
func CheckStreakBadges(ctx context.Context, streaks models.StreakRecord, award AwardFunc) error {
	var errs []error
	for _, p := range models.AllPeriods {
		n := streaks.Streak(p)
		for _, days := range MilestoneDays {
			if n < days {
				break
			}
			if err := award(ctx, StreakBadgeName(p, days)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// CheckAllPeriodsCompleted awards the perfect day badge.
func CheckAllPeriodsCompleted(ctx context.Context, award AwardFunc) error {
	return award(ctx, PerfectDayBadge)
}

// AwardWelcomeBadge is called on the user's first app session.
func AwardWelcomeBadge(ctx context.Context, award AwardFunc) error {
	return award(ctx, WelcomeBadge)
}

// AwardFirstCheckInBadge is called after the user's very first check-in.
func AwardFirstCheckInBadge(ctx context.Context, award AwardFunc) error {
	return award(ctx, FirstCheckInBadge)
}
