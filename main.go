package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arenda-scraper/config"
	"arenda-scraper/models"
	"arenda-scraper/scraper/arenda"
	"arenda-scraper/services"
	"arenda-scraper/state"
	"arenda-scraper/storage"
	"arenda-scraper/utils"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	startPage := flag.Int("start-page", 0, "First index page (overrides config; resume cursor still wins)")
	endPage := flag.Int("end-page", 0, "Last index page (0 = auto-detect from pagination)")
	workers := flag.Int("workers", 0, "Concurrent fetch ceiling (overrides config)")
	csvPath := flag.String("out", "", "CSV output path (overrides config)")
	statePath := flag.String("state", "", "Progress state file path (overrides config)")
	browser := flag.Bool("browser", false, "Fetch via headless Chrome instead of plain HTTP")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			utils.Error("Could not load config: %v", err)
			os.Exit(1)
		}
		utils.Info("Loaded configuration from %s", *configFile)
	}

	if *startPage > 0 {
		cfg.StartPage = *startPage
	}
	if *endPage > 0 {
		cfg.EndPage = *endPage
	}
	if *workers > 0 {
		cfg.MaxConcurrent = *workers
	}
	if *csvPath != "" {
		cfg.CSVPath = *csvPath
	}
	if *statePath != "" {
		cfg.StatePath = *statePath
	}
	if *browser {
		cfg.Browser = true
	}

	utils.Section("Arenda.az Harvester")
	utils.Info("Starting | workers=%d retries=%d out=%s", cfg.MaxConcurrent, cfg.MaxRetries, cfg.CSVPath)

	store := state.NewStore(cfg.StatePath)
	sink := storage.NewCSVWriter(cfg.CSVPath)

	scraper, err := arenda.NewScraper(cfg, store, sink)
	if err != nil {
		utils.Error("Could not start scraper: %v", err)
		os.Exit(1)
	}
	defer scraper.Close()

	// SIGINT and SIGTERM both request the same cooperative shutdown: the
	// page loop stops at the next page boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listings, stats, err := scraper.Run(ctx, cfg.StartPage, cfg.EndPage)
	if err != nil {
		utils.Error("Harvest failed: %v", err)
		os.Exit(1)
	}

	if cfg.DBHost != "" && len(listings) > 0 {
		mirrorToPostgres(cfg, listings)
	}

	if len(listings) > 0 {
		services.PrintReport(services.GenerateReport(listings))
	}

	printSummary(stats, store)
}

// mirrorToPostgres copies this run's rows into the optional DB sink.
// The CSV already holds the data, so mirror errors are logged, not fatal.
func mirrorToPostgres(cfg *config.Config, listings []models.Listing) {
	pgWriter, err := storage.NewPostgresWriter(cfg)
	if err != nil {
		utils.Error("Failed to connect PostgreSQL: %v", err)
		return
	}
	defer pgWriter.Close()

	if err := pgWriter.EnsureSchema(); err != nil {
		utils.Error("Failed to ensure PostgreSQL schema: %v", err)
		return
	}

	if err := pgWriter.WriteBatch(services.CleanListings(listings)); err != nil {
		utils.Error("Failed to mirror listings to PostgreSQL: %v", err)
		return
	}
	utils.Success("Mirrored %d listings to PostgreSQL", len(listings))
}

func printSummary(stats arenda.RunStats, store *state.Store) {
	processed, failed := store.Counts()

	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║               HARVEST COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Pages completed  : %-24d ║\n", stats.Pages)
	fmt.Printf("║  Harvested (run)  : %-24d ║\n", stats.Harvested)
	fmt.Printf("║  Skipped (dedup)  : %-24d ║\n", stats.Skipped)
	fmt.Printf("║  Failed (run)     : %-24d ║\n", stats.Failed)
	fmt.Printf("║  Processed total  : %-24d ║\n", processed)
	fmt.Printf("║  Failed total     : %-24d ║\n", failed)
	fmt.Println("╚══════════════════════════════════════════════╝")
	fmt.Println()
}
