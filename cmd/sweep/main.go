// Command sweep runs one scheduler job and exits, for deployments that
// drive the jobs from system cron instead of the API process.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salescrm/internal/app"
	"salescrm/internal/config"
	"salescrm/internal/domain/sweep"
	"salescrm/internal/pkg/lock"
	"salescrm/internal/pkg/logger"
)

func main() {
	jobName := flag.String("job", "", "job to run: recycle, remind or purge")
	flag.Parse()

	job, err := sweep.ParseJob(*jobName)
	if err != nil {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	lg := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, App: "sweep"})

	if err := run(cfg, lg, job); err != nil {
		lg.Error().Err(err).Str("job", string(job)).Msg("job failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, lg zerolog.Logger, job sweep.Job) error {
	// one run per job at a time
	fl, err := lock.Acquire(cfg.Scheduler.LockFile + "." + string(job))
	if errors.Is(err, lock.ErrHeld) {
		lg.Warn().Str("job", string(job)).Msg("job already running, skipped")
		return nil
	}
	if err != nil {
		return err
	}
	defer fl.Release()

	a, err := app.Open(cfg, lg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Scheduler.RunOnce(context.Background(), job); err != nil {
		return err
	}
	lg.Info().Str("job", string(job)).Msg("job completed")
	return nil
}
