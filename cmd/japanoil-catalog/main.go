package main

import (
	"log"
	"os"

	"japanoil-catalog/internal/app"
	"japanoil-catalog/internal/config"
	"japanoil-catalog/internal/download"
	"japanoil-catalog/internal/fetcher"
	"japanoil-catalog/internal/observability"
	"japanoil-catalog/internal/scraper"
	"japanoil-catalog/internal/storage/mssql"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfg *config.Config
		err error
	)
	if len(os.Args) > 1 {
		cfg, err = config.LoadConfig(os.Args[1])
	} else {
		cfg, err = config.LoadConfigOrDefault(defaultConfigPath)
	}
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)
	defer func() { _ = logger.Close() }()
	metrics := observability.NewMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.Observability.MetricsPath); err != nil {
			logger.Error("Failed to write metrics", "error", err.Error())
		}
	}()

	selectors, err := cfg.Selectors()
	if err != nil {
		logger.Error("Failed to load selectors", "error", err.Error())
		return 1
	}
	scr, err := scraper.NewScraper(selectors, logger)
	if err != nil {
		logger.Error("Failed to build scraper", "error", err.Error())
		return 1
	}

	f := fetcher.NewFetcher(cfg, logger)
	if cfg.Rod.Enabled {
		renderer, err := fetcher.NewRenderer(cfg)
		if err != nil {
			logger.Error("Failed to start browser", "error", err.Error())
			return 1
		}
		defer func() { _ = renderer.Close() }()
		f.WithRenderer(renderer)
	}

	d := download.NewDownloader(f, cfg.Output.AssetsDir, logger, metrics)
	orchestrator := app.NewOrchestrator(cfg, logger, metrics, f, scr, d)

	if cfg.Storage.Enabled {
		repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			logger.Error("Failed to connect to storage", "error", err.Error())
			return 1
		}
		defer func() { _ = repo.Close() }()
		orchestrator.WithRepository(repo)
	}

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	if _, err := orchestrator.Run(ctx); err != nil {
		logger.Error("Run failed", "error", err.Error())
		return 1
	}
	return 0
}
