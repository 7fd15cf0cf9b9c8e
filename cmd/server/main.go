// Package main serves the stored award searches over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/airline"
	awardhttp "github.com/flightplan-tool/flightplan-sub000/internal/adapter/http"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/http/middleware"
	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/config"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

const (
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.MustLoad()
	log := logger.Init(cfg.Logger())

	log.Info().
		Str("env", cfg.App.Env).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Storage.DatabasePath).
		Msg("Configuration loaded")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	configs, err := config.LoadAirlines(cfg.AirlineOptions())
	if err != nil {
		return fmt.Errorf("load airlines: %w", err)
	}
	registry, err := airline.NewRegistry(configs)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(context.Background(), cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	middleware.Setup(e, log)
	awardhttp.RegisterRoutes(e, awardhttp.NewAwardHandler(store, registry))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Strs("engines", registry.IDs()).Msg("Starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return gracefulShutdown(e, log, errCh)
}

// gracefulShutdown waits for an interrupt signal or a server failure.
func gracefulShutdown(e *echo.Echo, log *logger.Logger, errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("start server: %w", err)
	case <-quit:
	}
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}
