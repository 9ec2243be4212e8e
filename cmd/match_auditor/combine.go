package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/match-auditor/internal/combine"
	"github.com/jonathan/match-auditor/internal/config"
	"github.com/jonathan/match-auditor/internal/observability"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge all shard output logs into one combined result file",
	Long: `Reads every shard output log that exists under the output base, unions the
rows by match uid, and writes one deduplicated combined file. Missing shard
logs are tolerated with a warning so a partial combine is possible. Where a
match appears in more than one log, the non-error row wins; among errors the
lowest shard id wins.`,
	RunE: runCombine,
}

var (
	combineConfigPath  string
	combineOutputBase  string
	combineTotalShards int
	combineVerbose     bool
)

func init() {
	combineCmd.Flags().StringVar(&combineConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	combineCmd.Flags().StringVarP(&combineOutputBase, "output-base", "o", "", "Base path the shard logs were written under")
	combineCmd.Flags().IntVar(&combineTotalShards, "total-shards", 1, "Total number of shards the scrape ran with")
	combineCmd.Flags().BoolVarP(&combineVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(combineCmd)
}

func runCombine(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if combineConfigPath != "" {
		loaded, err := loadConfigFile(combineConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("output-base") {
		cfg.OutputBase = combineOutputBase
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = combineVerbose
	}
	cfg = cfg.MergeWithDefaults(configDefaults)

	if combineTotalShards < 1 {
		return fmt.Errorf("--total-shards must be at least 1")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	dir := filepath.Dir(cfg.OutputBase)
	base := filepath.Base(cfg.OutputBase)

	combined, summary, err := combine.Shards(context.Background(), dir, base, combineTotalShards, logger)
	if err != nil {
		return err
	}
	if summary.ShardsRead == 0 {
		return fmt.Errorf("no shard logs found under %s", cfg.OutputBase)
	}

	outPath := combinedPath(cfg.OutputBase)
	if err := combined.Write(outPath); err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintCombineSummary(summary)
	_, _ = fmt.Fprintf(os.Stdout, "Written: %s\n", outPath)
	return nil
}

// combinedPath is where combine writes and apply reads the merged results.
func combinedPath(outputBase string) string {
	return outputBase + "_combined.csv"
}
