package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sec-view/DataLens/internal/config"
	"github.com/sec-view/DataLens/internal/motor"
	"github.com/sec-view/DataLens/internal/store"
	"github.com/sec-view/DataLens/internal/watch"
)

var (
	verbose    bool
	configPath string

	Logger *slog.Logger
	Engine *motor.Engine
	Store  *store.DB
	Bridge *watch.Bridge

	rootCmd = &cobra.Command{
		Use:   "datalens",
		Short: "Browse very large JSONL, CSV, JSON, and Parquet files with bounded memory",
		Long: `DataLens is a desktop-embedded engine for paging, searching, and
exporting slices of very large dataset files without loading them whole
into memory. This binary exposes its engine as a CLI front door; the
desktop shell talks to the same internal/motor.Engine over its own
transport.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger()
			setupEngine()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: "+config.DefaultPath()+")")

	setupLogger()
}

func setupLogger() {
	var opts *slog.HandlerOptions
	if verbose {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}
	} else {
		opts = &slog.HandlerOptions{Level: slog.LevelInfo}
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	if verbose {
		Logger.Debug("verbose logging enabled", "pid", os.Getpid())
	}
}

// setupEngine loads configuration and wires the engine, the recent-files
// store, and the pending-open bridge together (spec.md §6's three
// collaborators behind the wire contract).
func setupEngine() {
	cfg, err := config.Load(configPath)
	if err != nil {
		Logger.Error("loading config, falling back to defaults", "error", err)
		cfg = config.Default()
	}

	Engine = motor.NewEngine(cfg.Limits())

	db, err := store.Open(store.DefaultPath())
	if err != nil {
		Logger.Warn("recent-files store unavailable", "error", err)
	} else {
		Store = db
		Engine.OnOpen = func(path string) {
			if err := Store.StampOpened(path); err != nil {
				Logger.Debug("stamping recent file", "path", path, "error", err)
			}
		}
	}

	b, err := watch.Open(watch.DefaultDir())
	if err != nil {
		Logger.Warn("pending-open bridge unavailable", "error", err)
	} else {
		Bridge = b
	}
}

func teardown() {
	if Store != nil {
		Store.Close()
	}
	if Bridge != nil {
		Bridge.Close()
	}
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	if Logger == nil {
		setupLogger()
	}
	return Logger
}
