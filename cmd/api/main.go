package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"salescrm/internal/app"
	"salescrm/internal/config"
	"salescrm/internal/domain/sweep"
	"salescrm/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	lg := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, App: cfg.AppName})

	a, err := app.Open(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("open app")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		if err := a.Scheduler.Start(ctx); err != nil && !errors.Is(err, sweep.ErrLockHeld) {
			lg.Fatal().Err(err).Msg("start scheduler")
		}
	} else {
		lg.Info().Msg("scheduler disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("http shutdown")
	}
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("scheduler stop")
	}
}
