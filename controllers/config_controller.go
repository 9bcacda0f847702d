package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

// ConfigController serves static client configuration.
type ConfigController struct {
	timezone string
}

func NewConfigController(timezone string) *ConfigController {
	return &ConfigController{timezone: timezone}
}

// GetMilestones returns the celebration thresholds and check-in periods.
func (c *ConfigController) GetMilestones(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"milestones": services.MilestoneDays,
		"periods":    models.AllPeriods,
		"timezone":   c.timezone,
	})
}
