package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/restaurant-backoffice/cache"
	"github.com/yeremiapane/restaurant-backoffice/config"
	"github.com/yeremiapane/restaurant-backoffice/database"
	"github.com/yeremiapane/restaurant-backoffice/hub"
	"github.com/yeremiapane/restaurant-backoffice/metrics"
	"github.com/yeremiapane/restaurant-backoffice/router"
	"github.com/yeremiapane/restaurant-backoffice/services"
	"github.com/yeremiapane/restaurant-backoffice/utils"
	"gorm.io/gorm"
)

// app holds the process-wide dependencies built from the configuration.
type app struct {
	cfg         *config.Config
	db          *gorm.DB
	redis       *redis.Client
	hub         *hub.Hub
	metrics     *metrics.Metrics
	tokens      *utils.TokenIssuer
	codes       *services.CodeGenerator
	assignments *services.AssignmentService
	catalog     *services.CatalogService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}

	var projections cache.ProjectionCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			// the cache is optional, serve from the database instead
			utils.ErrorLogger.WithError(err).Warn("redis unavailable, projection cache disabled")
		} else {
			a.redis = client
			projections = cache.NewRedisProjectionCache(client, cfg.Redis.TTL)
		}
	}

	opts := []services.AssignmentOption{services.WithProjectionCache(projections)}
	var hubOpts []hub.Option
	if cfg.App.MetricsEnabled {
		a.metrics = metrics.New()
		opts = append(opts, services.WithRecorder(a.metrics))
		hubOpts = append(hubOpts, hub.WithClientCounter(a.metrics.SetHubClients))
	}
	a.hub = hub.New(hubOpts...)
	opts = append(opts, services.WithPublisher(a.hub))

	var tokenOpts []utils.TokenOption
	if a.redis != nil {
		tokenOpts = append(tokenOpts, utils.WithRevocationStore(cache.NewRedisRevocations(a.redis)))
	}
	a.tokens = utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL, tokenOpts...)
	a.codes = services.NewCodeGenerator()
	a.assignments = services.NewAssignmentService(db, opts...)
	a.catalog = services.NewCatalogService(db, a.assignments)
	return a, nil
}

func (a *app) routerDeps() router.Deps {
	return router.Deps{
		Config:      a.cfg.App,
		DB:          a.db,
		Tokens:      a.tokens,
		Assignments: a.assignments,
		Catalog:     a.catalog,
		Codes:       a.codes,
		Hub:         a.hub,
		Metrics:     a.metrics,
	}
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			utils.ErrorLogger.WithError(err).Warn("closing redis")
		}
	}
	if err := database.Close(a.db); err != nil {
		utils.ErrorLogger.WithError(err).Warn("closing database")
	}
}
