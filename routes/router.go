package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/moodstreak/config"
	"github.com/cppla/moodstreak/controllers"
	"github.com/cppla/moodstreak/middleware"
	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

// Deps are the services the HTTP surface sits on.
type Deps struct {
	Streaks    *services.StreakEngine
	Catalog    *services.BadgeCatalog
	Awards     *services.AwardEngine
	Aggregator *services.AchievementAggregator
	Bus        *services.EventBus
	Logger     *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access logs go to their own rolling file; stdout stays for app logs
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestMetrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(utils.MetricsHandler()))

	streakController := controllers.NewStreakController(deps.Streaks)
	badgeController := controllers.NewBadgeController(deps.Catalog, deps.Awards, deps.Aggregator)
	statsController := controllers.NewStatsController(deps.Streaks, deps.Awards)
	configController := controllers.NewConfigController(cfg.Timezone)
	eventsController := controllers.NewEventsController(deps.Bus, cfg.AllowedOrigins, deps.Logger)

	api := r.Group("/api/v1")

	// Public catalog and client config
	api.GET("/badges", badgeController.ListBadges)
	api.GET("/badges/by-name/:name", badgeController.GetBadgeByName)
	api.GET("/badges/:id", badgeController.GetBadge)
	api.GET("/config/milestones", configController.GetMilestones)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(cfg.JWTSecret), middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))

	protected.GET("/streaks", streakController.GetStreaks)
	protected.POST("/streaks/refresh", streakController.RefreshStreaks)
	protected.POST("/streaks/:period/check-in", streakController.CheckIn)
	protected.POST("/session/start", badgeController.StartSession)
	protected.GET("/users/me/badges", badgeController.ListMyBadges)
	protected.POST("/users/me/badges", badgeController.AddMyBadge)
	protected.GET("/stats/streaks", statsController.GetStreakStats)
	protected.GET("/events", eventsController.Stream)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
