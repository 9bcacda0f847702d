package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

// StreakController handles check-in endpoints.
type StreakController struct {
	engine *services.StreakEngine
	now    func() time.Time
}

// NewStreakController creates a new controller instance.
func NewStreakController(engine *services.StreakEngine) *StreakController {
	return &StreakController{engine: engine, now: time.Now}
}

// GetStreaks returns the current snapshot, loading it on first access.
func (s *StreakController) GetStreaks(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	rec, found := s.engine.Snapshot(userID)
	if !found {
		var err error
		rec, err = s.engine.RefreshStreaks(ctx.Request.Context(), userID)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load streaks")
			return
		}
	}
	utils.Success(ctx, streakPayload(rec))
}

// RefreshStreaks re-reads storage, e.g. after another device checked in.
func (s *StreakController) RefreshStreaks(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	rec, err := s.engine.RefreshStreaks(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load streaks")
		return
	}
	utils.Success(ctx, streakPayload(rec))
}

// CheckIn records a check-in for the period in the path.
func (s *StreakController) CheckIn(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	period, err := models.ParsePeriod(ctx.Param("period"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "period must be morning, afternoon or evening")
		return
	}

	res, err := s.engine.IncrementStreak(ctx.Request.Context(), userID, period, s.now())
	if err != nil {
		if errors.Is(err, services.ErrStreakConflict) {
			utils.Error(ctx, http.StatusConflict, 40930, services.CheckInFailedMessage)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, services.CheckInFailedMessage)
		return
	}
	utils.Success(ctx, res)
}

func streakPayload(rec models.StreakRecord) gin.H {
	return gin.H{
		"streaks":        rec,
		"overall_streak": services.CalculateOverallStreak(rec),
	}
}
