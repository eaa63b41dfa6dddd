package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/api"
	"github.com/mmcdole/reel/internal/playback"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/tui"
)

// --- view ---

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the story feed (default)",
	Long: `Open the story feed and viewer.

Examples:
  reel
  reel view --story 237
  reel view --pin`,
	RunE: runView,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, viewCmd} {
		c.Flags().String("story", "", "open the viewer on this story id")
		c.Flags().Bool("pin", false, "navigate a catalog snapshot fixed when the viewer opens")
	}
}

func runView(cmd *cobra.Command, args []string) error {
	// Not a terminal: print the listing instead of starting the UI
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return runList(cmd, args)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	storyID, _ := cmd.Flags().GetString("story")
	pin, _ := cmd.Flags().GetBool("pin")

	cfg := a.cfg
	player := playback.NewController(a.provider, cfg.Playback.Interval, a.logger)
	launcher := adapter.NewLauncher(cfg.Viewer.Command, cfg.Viewer.Args, a.logger)

	model := tui.NewModel(a.provider, a.source, launcher, player, tui.Options{
		FeedLimit:    cfg.Catalog.FeedLimit,
		PinSnapshot:  pin || cfg.Playback.PinSnapshot,
		StartStoryID: storyID,
		CardWidth:    cfg.UI.CardWidth,
	}, a.logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)

	a.logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the story feed",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Int("limit", 0, "number of stories to fetch (default catalog.feed_limit)")
	listCmd.Flags().String("query", "", "rank stories by fuzzy title match")
	listCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// view falls back here without list's flags
	limit, _ := cmd.Flags().GetInt("limit")
	query, _ := cmd.Flags().GetString("query")
	asJSON, _ := cmd.Flags().GetBool("json")
	if limit <= 0 {
		limit = a.cfg.Catalog.FeedLimit
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	stories := a.provider.FetchCatalog(ctx, limit).Stories()
	if query != "" {
		stories = search.Rank(query, stories)
	}

	if asJSON {
		out := make([]api.StoryJSON, len(stories))
		for i, s := range stories {
			out[i] = api.NewStoryJSON(s)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(stories) == 0 {
		fmt.Println("No stories available at the moment.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tTITLE\tSIZE")
	for i, s := range stories {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, s.ID, s.Title, s.Dimensions())
	}
	return w.Flush()
}

// --- serve ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over a read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.Server.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handler := api.NewHandler(api.Deps{
			Catalog:   a.provider,
			FeedLimit: a.cfg.Catalog.FeedLimit,
			Logger:    a.logger,
		})

		srv := &http.Server{
			Addr:              addr,
			Handler:           middleware.Timeout(30 * time.Second)(handler),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext: func(_ net.Listener) context.Context {
				return ctx
			},
		}

		// Start server in a goroutine
		errCh := make(chan error, 1)
		go func() {
			fmt.Fprintf(os.Stdout, "reel listening on %s\n", addr)
			a.logger.Info("api listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		// Wait for signal or server error
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stdout, "shutting down...")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if configPath != "" && !force {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			}
		}

		path, err := adapter.SaveConfig(adapter.DefaultConfig(), configPath)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Configuration written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := adapter.LoadConfig(configPath)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

// --- cache ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-disk catalog mirror",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the mirrored catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.cache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("✓ Catalog cache cleared")
		return nil
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mirrored catalog and its age",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fetchedAt, ok := a.cache.FetchedAt()
		if !ok {
			fmt.Println("No catalog cached")
			return nil
		}

		age := time.Since(fetchedAt).Round(time.Second)
		state := "fresh"
		if age >= a.cfg.Catalog.TTL {
			state = "stale"
		}
		fmt.Printf("%d stories, fetched %s (%s ago, %s)\n",
			a.cache.Current().Len(), fetchedAt.Local().Format(time.DateTime), age, state)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheStatusCmd)
}
