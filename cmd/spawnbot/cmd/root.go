// Package cmd holds the spawnbot command line.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spawnbot/internal/config"
	"spawnbot/internal/tracker"
)

const defaultConfigPath = "./config.json"

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "spawnbot",
		Short: "Telegram bot that tracks boss respawn timers.",
		Long: `spawnbot tracks boss respawn timers for a guild chat.

Members report kills with /kill or /killtime; the bot alerts the notify
chat shortly before every spawn. Without a subcommand it runs the bot.`,
		SilenceUsage: true,
		RunE:         runBot,
	}
)

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // cobra wiring
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file (JSON or YAML)")
	rootCmd.AddCommand(runCmd, bossesCmd, nextCmd, parseTimeCmd)
}

// offlineEnv resolves the catalog and calendar zone for the commands that
// never talk to Telegram. A missing config file means defaults.
func offlineEnv() (*tracker.Catalog, *time.Location, error) {
	var tc config.TrackerConfig
	if b, err := os.ReadFile(configPath); err == nil {
		cfg, err := config.Decode(configPath, b)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", configPath, err)
		}
		tc = cfg.Tracker
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, err
	}
	ts, err := config.ResolveTracker(tc)
	if err != nil {
		return nil, nil, err
	}
	if ts.CatalogPath == "" {
		return tracker.DefaultCatalog(), ts.Location, nil
	}
	cat, err := tracker.LoadCatalog(ts.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("tracker.catalog_path: %w", err)
	}
	return cat, ts.Location, nil
}
