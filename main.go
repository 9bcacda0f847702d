package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/moodstreak/config"
	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/routes"
	"github.com/cppla/moodstreak/services"
	"github.com/cppla/moodstreak/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(&models.CheckInStreak{}, &models.Badge{}, &models.UserBadge{})
	rc := utils.NewRedis(cfg)
	cache := utils.NewCache(rc)
	loc := cfg.Location()
	log := utils.Logger

	bus := services.NewEventBus(log.Named("events"))
	notifier := services.NewBusNotifier(bus, log.Named("notify"))
	badgeStore := services.NewGormBadgeStore(db)
	catalog := services.NewBadgeCatalog(badgeStore, cache, log.Named("catalog"))
	awards := services.NewAwardEngine(catalog, badgeStore, log.Named("awards"))
	streaks := services.NewStreakEngine(services.NewGormStreakStore(db), bus, notifier, loc, log.Named("streaks"))
	aggregator := services.NewAchievementAggregator(awards, log.Named("achievements"))
	aggregator.Attach(bus)

	if !cfg.SkipCatalogBootstrap {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := catalog.InitializeCatalog(ctx); err != nil {
			// awards against a missing catalog are logged and skipped, so keep serving
			log.Error("badge catalog bootstrap failed", zap.Error(err))
		}
		cancel()
	}

	scheduler := services.NewScheduler(loc, log.Named("scheduler"))
	if cache.Enabled() && cfg.CacheWarmSpec != "" {
		if _, err := scheduler.ScheduleCatalogWarm(cfg.CacheWarmSpec, catalog); err != nil {
			utils.Sugar.Fatalf("invalid CACHE_WARM_SPEC %q: %v", cfg.CacheWarmSpec, err)
		}
	}
	scheduler.Start()

	r := routes.SetupRouter(cfg, routes.Deps{
		Streaks:    streaks,
		Catalog:    catalog,
		Awards:     awards,
		Aggregator: aggregator,
		Bus:        bus,
		Logger:     log.Named("http"),
	})

	shutdown := func() {
		scheduler.Stop()
		if rc != nil {
			_ = rc.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	utils.Sugar.Infof("Starting server on port %s (graceful), streak timezone %s", cfg.AppPort, loc)
	if err := utils.GraceServer(":"+cfg.AppPort, r, shutdown); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
