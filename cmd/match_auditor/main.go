// Package main provides the entry point for the match audit pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "match_auditor",
	Short: "Tennis match home/away audit pipeline",
	Long:  "match_auditor verifies home/away assignments in a canonical match dataset against the source pages, shard by shard, then combines shard outputs and applies corrections and supplementary fields back to the dataset.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Verbose runs get development output
// with debug level; otherwise production JSON at info level.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
