package main

import (
	"context"
	"os"

	"github.com/robfig/cron/v3"

	"realty-scraper/config"
	"realty-scraper/runner"
	"realty-scraper/scraper/realty"
	"realty-scraper/storage"
	"realty-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Realty Scraping Pipeline starting ===")
	logger.Info("Config — targets: %d | data dir: %s | step attempts: %d | run attempts: %d",
		len(cfg.TargetURLs), cfg.DataDir, cfg.StepAttempts, cfg.RunAttempts)

	scraper := realty.New(cfg, logger)
	reconciler := storage.NewReconciler(storage.ArtifactConfig{
		DataDir:     cfg.DataDir,
		Basename:    cfg.ArtifactBasename,
		HistoryFile: cfg.HistoryFile,
		LatestFile:  cfg.LatestFile,
	}, logger)

	var mirror storage.HistoryMirror
	if cfg.PostgresMirror {
		pg, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL mirror: %v", err)
			os.Exit(1)
		}
		defer pg.Close()
		if n, err := pg.Count(); err == nil {
			logger.Info("PostgreSQL mirror connected — %d history rows mirrored", n)
		}
		mirror = pg
	}

	run := runner.New(logger, scraper, reconciler, mirror,
		utils.RetryPolicy{MaxAttempts: cfg.StepAttempts, Delay: cfg.StepDelay, Logger: logger},
		utils.RetryPolicy{MaxAttempts: cfg.RunAttempts, Delay: cfg.RunDelay, Logger: logger},
	)

	if cfg.Schedule != "" {
		runScheduled(cfg.Schedule, run, logger)
		return
	}

	if _, err := run.Run(context.Background()); err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}
}

// runScheduled blocks forever, firing a run per the cron schedule. Ticks
// that land while a run is still active are skipped rather than queued,
// so reconciler writes never interleave.
func runScheduled(schedule string, run *runner.Runner, logger *utils.Logger) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))))
	_, err := c.AddFunc(schedule, func() {
		if _, err := run.Run(context.Background()); err != nil {
			logger.Error("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		logger.Error("Invalid schedule %q: %v", schedule, err)
		os.Exit(1)
	}

	logger.Info("Scheduler started — schedule %q", schedule)
	c.Run()
}
