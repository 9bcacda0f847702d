package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

// BadgeController exposes the catalog and the caller's grants.
type BadgeController struct {
	catalog    *services.BadgeCatalog
	awards     *services.AwardEngine
	aggregator *services.AchievementAggregator
}

func NewBadgeController(catalog *services.BadgeCatalog, awards *services.AwardEngine, aggregator *services.AchievementAggregator) *BadgeController {
	return &BadgeController{catalog: catalog, awards: awards, aggregator: aggregator}
}

type addBadgeRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListBadges returns the full catalog.
func (b *BadgeController) ListBadges(ctx *gin.Context) {
	items, err := b.catalog.ListBadges(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load badges")
		return
	}
	utils.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// GetBadge looks a badge up by id.
func (b *BadgeController) GetBadge(ctx *gin.Context) {
	badge, err := b.catalog.GetBadgeByID(ctx.Request.Context(), ctx.Param("id"))
	b.writeBadge(ctx, badge, err)
}

// GetBadgeByName looks a badge up by its catalog name.
func (b *BadgeController) GetBadgeByName(ctx *gin.Context) {
	badge, err := b.catalog.GetBadgeByName(ctx.Request.Context(), ctx.Param("name"))
	b.writeBadge(ctx, badge, err)
}

func (b *BadgeController) writeBadge(ctx *gin.Context, badge interface{}, err error) {
	if errors.Is(err, services.ErrBadgeNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40440, "badge not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load badge")
		return
	}
	utils.Success(ctx, badge)
}

// ListMyBadges returns the caller's grants.
func (b *BadgeController) ListMyBadges(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	items, err := b.awards.ListUserBadges(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load user badges")
		return
	}
	utils.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// AddMyBadge grants a named badge to the caller. Repeated calls succeed
// without creating another grant.
func (b *BadgeController) AddMyBadge(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req addBadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "badge name is required")
		return
	}

	outcome, err := b.awards.AddUserBadge(ctx.Request.Context(), userID, req.Name)
	if errors.Is(err, services.ErrBadgeNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40440, "badge not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to award badge")
		return
	}
	if outcome == services.AwardGranted {
		utils.Created(ctx, gin.H{"badge": req.Name, "outcome": outcome})
		return
	}
	utils.Success(ctx, gin.H{"badge": req.Name, "outcome": outcome})
}

// StartSession is called by the app on launch; the first one earns the welcome badge.
func (b *BadgeController) StartSession(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	if err := b.aggregator.SessionStarted(ctx.Request.Context(), userID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to start session")
		return
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}
