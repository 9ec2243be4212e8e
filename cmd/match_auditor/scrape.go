package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/match-auditor/internal/audit"
	"github.com/jonathan/match-auditor/internal/config"
	"github.com/jonathan/match-auditor/internal/dataset"
	"github.com/jonathan/match-auditor/internal/db"
	"github.com/jonathan/match-auditor/internal/fetch"
	"github.com/jonathan/match-auditor/internal/observability"
	"github.com/jonathan/match-auditor/internal/pacing"
	"github.com/jonathan/match-auditor/internal/shard"
	"github.com/jonathan/match-auditor/internal/shardlog"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Process this shard's matches and append results to its output log",
	Long: `Fetches and audits every match owned by this shard: verifies the home/away
assignment against the source page and captures tiebreaks, durations, date-time,
and court surface. Appends one row per match to the shard's output log.

With --resume, matches already recorded in the log are skipped, including rows
recorded as errors. SIGINT/SIGTERM finishes the in-flight match and stops at the
next commit boundary.`,
	RunE: runScrape,
}

var (
	scrapeConfigPath  string
	scrapeInput       string
	scrapeOutputBase  string
	scrapeShard       int
	scrapeTotalShards int
	scrapeResume      bool
	scrapeLimit       int
	scrapeDatabaseURL string
	scrapeVerbose     bool
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	scrapeCmd.Flags().StringVarP(&scrapeInput, "input", "i", "", "Path to the canonical match CSV")
	scrapeCmd.Flags().StringVarP(&scrapeOutputBase, "output-base", "o", "", "Base path for shard output logs")
	scrapeCmd.Flags().IntVar(&scrapeShard, "shard", 0, "Shard index (0-based)")
	scrapeCmd.Flags().IntVar(&scrapeTotalShards, "total-shards", 1, "Total number of shards")
	scrapeCmd.Flags().BoolVar(&scrapeResume, "resume", false, "Skip matches already recorded in the shard log")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "Max matches to process this run (0 = all)")
	scrapeCmd.Flags().StringVar(&scrapeDatabaseURL, "db-url", "", "PostgreSQL URL for the rendered-page cache (optional, defaults to DATABASE_URL env var)")
	scrapeCmd.Flags().BoolVarP(&scrapeVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveScrapeConfig(cmd)
	if err != nil {
		return err
	}

	settings := config.ScrapeSettings{
		Input:       cfg.Input,
		OutputBase:  cfg.OutputBase,
		Shard:       scrapeShard,
		TotalShards: scrapeTotalShards,
		Limit:       scrapeLimit,
		Resume:      scrapeResume,
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid scrape settings: %w", err)
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tbl, err := dataset.Load(settings.Input)
	if err != nil {
		return err
	}
	records := tbl.Records()

	owned, err := shard.Plan(records, settings.Shard, settings.TotalShards)
	if err != nil {
		return err
	}

	dir := filepath.Dir(settings.OutputBase)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	logPath := shardlog.FilePath(dir, filepath.Base(settings.OutputBase), settings.Shard, settings.TotalShards)

	done := make(shardlog.DoneSet)
	if settings.Resume {
		done, err = shardlog.ReadDoneSet(logPath)
		if err != nil {
			return err
		}
	}

	log, err := shardlog.Open(logPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	fetcher, cleanup, err := buildFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	governor := pacing.New(pacing.Config{
		MinDelay:    time.Duration(cfg.MinDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: time.Duration(cfg.BackoffBaseMs) * time.Millisecond,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting shard run",
		zap.Int("shard", settings.Shard),
		zap.Int("total_shards", settings.TotalShards),
		zap.Int("owned", len(owned)),
		zap.Int("already_recorded", len(done)),
		zap.String("log", logPath))

	runner := audit.NewRunner(fetcher, governor, log, done, logger)
	summary, runErr := runner.Run(ctx, owned, settings.Limit)

	if summary != nil {
		observability.NewPrinter(os.Stdout).PrintScrapeSummary(settings.Shard, settings.TotalShards, summary)
	}
	return runErr
}

// resolveScrapeConfig merges config file, explicit flags, environment, and
// built-in defaults, flags winning over the file.
func resolveScrapeConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if scrapeConfigPath != "" {
		loaded, err := loadConfigFile(scrapeConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("input") {
		cfg.Input = scrapeInput
	}
	if cmd.Flags().Changed("output-base") {
		cfg.OutputBase = scrapeOutputBase
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = scrapeDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = scrapeVerbose
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	cfg = cfg.MergeWithDefaults(configDefaults)

	if cfg.Input == "" {
		return config.Config{}, fmt.Errorf("--input is required (via flag or config)")
	}
	return cfg, nil
}

// buildFetcher wires the headless browser renderer, optionally behind the
// Postgres rendered-page cache when a database URL is configured.
func buildFetcher(cfg config.Config, logger *zap.Logger) (fetch.Fetcher, func(), error) {
	browser := fetch.NewBrowser()
	if cfg.FetchTimeoutSec > 0 {
		browser.Timeout = time.Duration(cfg.FetchTimeoutSec) * time.Second
	}

	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, running uncached")
		return fetch.NewPageFetcher(browser, nil), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to page cache database: %w", err)
	}

	fetcher := fetch.NewPageFetcher(browser, &fetch.PageFetcherConfig{
		DB:       database,
		CacheTTL: time.Duration(cfg.CacheTTLHours) * time.Hour,
	})
	return fetcher, database.Close, nil
}
