package commands

import (
	"context"
	"fmt"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/airline"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/cache"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/config"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/assets"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *domain.Registry
	store    *sqlite.Store
	assets   *assets.FileStore
	cache    cache.Cache
}

// openApp loads configuration and opens storage. The results cache is only
// connected when withCache is set.
func openApp(ctx context.Context, withCache bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.Init(cfg.Logger())

	configs, err := config.LoadAirlines(cfg.AirlineOptions())
	if err != nil {
		return nil, fmt.Errorf("load airlines: %w", err)
	}
	registry, err := airline.NewRegistry(configs)
	if err != nil {
		return nil, err
	}

	files, err := assets.NewFileStore(cfg.Storage.AssetsDir)
	if err != nil {
		return nil, err
	}
	store, err := sqlite.Open(ctx, cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		store:    store,
		assets:   files,
		cache:    cache.NewNoOpCache(),
	}
	if withCache && cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.Cache.RedisURL, TTL: cfg.Cache.TTL}, log)
		if err != nil {
			log.Warn().Err(err).Msg("results cache unavailable, continuing without it")
		} else {
			a.cache = redisCache
		}
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close cache")
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close database")
	}
}
