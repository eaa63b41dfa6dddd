package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/source"
	"github.com/mmcdole/reel/internal/catalog"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "reel",
	Short:         "Browse and play a catalog of image stories in the terminal",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runView,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/reel/config.yaml)")
	rootCmd.SetVersionTemplate("reel {{.Version}}\n")

	rootCmd.AddCommand(viewCmd, listCmd, serveCmd, configCmd, cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the services shared by every command
type app struct {
	cfg      *adapter.Config
	logger   *slog.Logger
	source   source.StorySource
	cache    *catalog.Cache
	provider *catalog.Provider
	closers  []io.Closer
}

// openApp loads configuration and wires the catalog stack
func openApp() (*app, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		a.closers = append(a.closers, closer)
	}
	slog.SetDefault(logger)
	a.logger = logger

	logger.Info("starting reel", "version", Version, "upstream", cfg.Upstream.BaseURL)

	src, err := source.NewClientFromConfig(cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}
	a.source = src

	// The on-disk mirror is optional; run from memory when it cannot be opened
	var mirror domain.SnapshotStore
	cs, err := store.NewCatalogStore(cfg.Catalog.CacheDir, cfg.Upstream.BaseURL)
	if err != nil {
		logger.Warn("catalog mirror unavailable, continuing without it", "dir", cfg.Catalog.CacheDir, "error", err)
	} else {
		mirror = cs
		a.closers = append(a.closers, cs)
	}

	a.cache = catalog.NewCache(src, mirror, catalog.Options{
		TTL:           cfg.Catalog.TTL,
		RetryInterval: cfg.Catalog.RetryInterval,
	}, logger)
	a.provider = catalog.NewProvider(a.cache, cfg.Catalog.DefaultLimit, logger)

	return a, nil
}

// Close releases the mirror and the log file, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
