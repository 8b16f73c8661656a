package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"course-marketplace/internal/application"
	"course-marketplace/internal/config"
	"course-marketplace/internal/infra/api"
	"course-marketplace/internal/infra/api/apiv1"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted contact data)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		boot := logging.New(config.LogConfig{}, *devMode)
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.Build.Version, cfg.Build.Commit)

	// ---- Stores, adapters, use cases ----
	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	app, err := application.New(startCtx, cfg, logger)
	startCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("startup")
	}
	defer app.Close()

	go app.ReportPoolStats(ctx, 15*time.Second)

	// ---- Telegram admin bot ----
	if app.Bot != nil {
		go func() {
			if err := app.Bot.StartPolling(ctx); err != nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	} else {
		logger.Info().Msg("telegram token not set; admin notifications are logged only")
	}

	// ---- Review reminders ----
	if app.Reminder != nil {
		app.Reminder.Start(ctx)
		defer app.Reminder.Stop()
	}

	// ---- HTTP ----
	srv := api.NewServer(cfg.HTTP, app.Health, logger, apiv1.Mount(apiv1.NewServer(app.APIDeps(), logger)))
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if app.Bot != nil {
		app.Bot.StopPolling()
	}
	logger.Info().Msg("bye")
}
