package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/match-auditor/internal/apply"
	"github.com/jonathan/match-auditor/internal/combine"
	"github.com/jonathan/match-auditor/internal/config"
	"github.com/jonathan/match-auditor/internal/dataset"
	"github.com/jonathan/match-auditor/internal/observability"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply combined results to the canonical match CSV",
	Long: `Joins the combined result file onto the canonical dataset by match uid.
Swapped rows get their home/away identity corrected, including every paired
home_*/away_* stat column and the match score. Tiebreaks, durations, date-time,
and normalized surface fill only cells the dataset does not already have.
Error rows and rows without a combined entry are left untouched.

The canonical CSV is copied to a timestamped backup before being rewritten.`,
	RunE: runApply,
}

var (
	applyConfigPath string
	applyInput      string
	applyOutputBase string
	applyVerbose    bool
)

func init() {
	applyCmd.Flags().StringVar(&applyConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	applyCmd.Flags().StringVarP(&applyInput, "input", "i", "", "Path to the canonical match CSV")
	applyCmd.Flags().StringVarP(&applyOutputBase, "output-base", "o", "", "Base path the combined file was written under")
	applyCmd.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if applyConfigPath != "" {
		loaded, err := loadConfigFile(applyConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("input") {
		cfg.Input = applyInput
	}
	if cmd.Flags().Changed("output-base") {
		cfg.OutputBase = applyOutputBase
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = applyVerbose
	}
	cfg = cfg.MergeWithDefaults(configDefaults)

	if cfg.Input == "" {
		return fmt.Errorf("--input is required (via flag or config)")
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	combinedFile := combinedPath(cfg.OutputBase)
	if _, err := os.Stat(combinedFile); os.IsNotExist(err) {
		return fmt.Errorf("combined file not found: %s (run combine first)", combinedFile)
	}

	combined, err := combine.Read(combinedFile)
	if err != nil {
		return err
	}

	tbl, err := dataset.Load(cfg.Input)
	if err != nil {
		return err
	}

	summary := apply.Run(tbl, combined, logger)

	backupFile, err := dataset.Backup(cfg.Input)
	if err != nil {
		return err
	}
	if err := tbl.Write(cfg.Input); err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintApplySummary(summary)
	_, _ = fmt.Fprintf(os.Stdout, "Backup:  %s\n", backupFile)
	_, _ = fmt.Fprintf(os.Stdout, "Written: %s\n", cfg.Input)
	return nil
}
