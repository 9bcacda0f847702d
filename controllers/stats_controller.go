package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

// StatsController serves the statistics surface.
type StatsController struct {
	engine *services.StreakEngine
	awards *services.AwardEngine
	now    func() time.Time
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(engine *services.StreakEngine, awards *services.AwardEngine) *StatsController {
	return &StatsController{engine: engine, awards: awards, now: time.Now}
}

// GetStreakStats returns per-period streaks, the overall streak and the badge count.
func (s *StatsController) GetStreakStats(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	rec, err := s.engine.RefreshStreaks(reqCtx, userID)
	if err != nil {
		// Fall back to the last snapshot instead of failing the whole endpoint
		rec, _ = s.engine.Snapshot(userID)
	}

	badgeCount := 0
	if items, err := s.awards.ListUserBadges(reqCtx, userID); err == nil {
		badgeCount = len(items)
	}

	perPeriod := make(map[models.Period]int, len(models.AllPeriods))
	completedToday := 0
	now := s.now()
	for _, p := range models.AllPeriods {
		perPeriod[p] = rec.Streak(p)
		if last := rec.LastCheckIn(p); last != nil && services.CalendarDaysBetween(*last, now, s.engine.Location()) == 0 {
			completedToday++
		}
	}

	utils.Success(ctx, gin.H{
		"overall_streak":          services.CalculateOverallStreak(rec),
		"streaks":                 perPeriod,
		"periods_completed_today": completedToday,
		"badge_count":             badgeCount,
	})
}
