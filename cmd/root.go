// Package cmd implements the CLI commands for WikiPipe using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gaurav-prasanna/wikipipe/config"
	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "wikipipe",
	Short: "WikiPipe — convert a GitHub wiki into one HTML, PDF, JSON or Markdown document",
	Long: `WikiPipe crawls a GitHub wiki starting from its root page, follows every
intra-wiki link, and merges all reachable pages into a single document
with working in-document links.

Usage:
  wikipipe convert <wiki_dir> [flags]
  wikipipe convert --repo <user>/<project> [flags]
  wikipipe serve <wiki_dir> [flags]`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies explicitly set flags through
// apply and validates the result.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
