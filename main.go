package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitter-scraper/config"
	"sitter-scraper/geo"
	"sitter-scraper/models"
	"sitter-scraper/scraper/rover"
	"sitter-scraper/services"
	"sitter-scraper/storage"
	"sitter-scraper/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return 1
	}
	logger.SetDebug(cfg.Debug)

	cq := cfg.Criteria.CustomQueries
	logger.Info("=== Rover sitter search starting ===")
	logger.Info("Config — pages: %d | criteria: %s | output: %s | delay: %d-%dms",
		cfg.Criteria.ScriptSettings.PagesToSearch, cfg.CriteriaPath, cfg.OutputDir, cfg.MinDelayMs, cfg.MaxDelayMs)
	logger.Info("Criteria — max $%.2f within %.1f mi | %d+ reviews | %.2f+ rating | %d+ years | %d+ repeat clients",
		cq.MaxPrice, cq.MaxDistanceFromMe, cq.MinReviews, cq.MinRatingAvg, cq.MinYearsExperience, cq.MinRepeatClientCount)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Warn("Received interrupt signal, saving what we have...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var mirrors []storage.SitterWriter
	if cfg.PostgresDSN != "" {
		pgWriter, err := storage.NewPostgresWriter(cfg.PostgresDSN, &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Warn("PostgreSQL mirror disabled: %v", err)
		} else {
			defer pgWriter.Close()
			mirrors = append(mirrors, pgWriter)
			logger.Info("Mirroring exported sitters to PostgreSQL (table: sitters)")
		}
	}

	normalizer := services.NewNormalizer(geo.Point{Lat: cq.MyLat, Lon: cq.MyLon})
	exporter := services.NewExporter(normalizer, storage.NewCSVWriter(cfg.OutputDir), logger, mirrors...)
	insightSvc := services.NewInsightService(logger)

	browser := rover.NewBrowserFetcher(cfg, logger)
	if err := browser.Start(); err != nil {
		logger.Error("Failed to start browser: %v", err)
		if exp, err := exporter.Export(nil); err != nil {
			logger.Error("Export failed: %v", err)
		} else {
			logger.Info("Wrote empty export to %s", exp.Path)
		}
		return 1
	}
	defer browser.Close()

	started := time.Now()
	res, runErr := rover.New(cfg, browser, exporter, logger).Run(ctx)

	var records []models.ExportRecord
	if res.Export != nil {
		records = res.Export.Records
	}
	insightSvc.Print(insightSvc.Generate(res.Summary, records))

	if runErr != nil {
		logger.Error("Run finished with errors after %v: %v", time.Since(started).Round(time.Second), runErr)
		return 1
	}

	fmt.Printf("  Done in %v. Sitters → %s\n\n", time.Since(started).Round(time.Second), res.Summary.OutputPath)
	return 0
}
