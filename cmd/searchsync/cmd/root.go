// Package cmd provides the CLI commands for searchsync.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openmediahub/searchsync/internal/config"
	"github.com/openmediahub/searchsync/internal/db"
	"github.com/openmediahub/searchsync/internal/engine"
	syncerrors "github.com/openmediahub/searchsync/internal/errors"
	"github.com/openmediahub/searchsync/internal/index"
	"github.com/openmediahub/searchsync/internal/logging"
	"github.com/openmediahub/searchsync/internal/metrics"
	"github.com/openmediahub/searchsync/internal/profiling"
	"github.com/openmediahub/searchsync/pkg/version"
)

// configPath is bound to the persistent --config flag.
var configPath string

// Profiling flags, shared across subcommands.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// NewRootCmd creates the root command for the searchsync CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchsync",
		Short: "Keep the full-text search index in sync with the media database",
		Long: `Searchsync drains the durable change queue that database triggers fill
whenever realms or events change, and reconciles the search index
against current database truth.

Queue markers survive until the index accepts the change, so a failed
or interrupted cycle is simply retried on the next run. Entities that
vanished from the database since a marker was written disappear from
the index on the same cycle.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("searchsync version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: searchsync.yaml, then /etc/searchsync/config.yaml)")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newDrainCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRequeueCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfiling starts CPU and trace profiling when the flags ask for it.
func startProfiling(_ *cobra.Command, _ []string) error {
	var err error

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

// stopProfiling flushes the running profiles and writes the heap snapshot.
func stopProfiling(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	return nil
}

// Execute runs the root command and prints any failure to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err == nil {
		return nil
	}
	if syncerrors.GetCode(err) != "" {
		fmt.Fprint(os.Stderr, syncerrors.FormatCLI(err))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// loadConfig builds the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeConfigInvalid, err)
	}
	return cfg, nil
}

// setupLogging configures slog from config and installs it as default.
func setupLogging(cfg *config.Config) (*slog.Logger, func(), error) {
	logger, cleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Log.Level,
		FilePath:      cfg.Log.File,
		WriteToStderr: cfg.Log.Stderr,
	})
	if err != nil {
		return nil, nil, syncerrors.ConfigError("failed to set up logging", err)
	}
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// openDatabase opens the primary database and ensures the schema,
// including the queue table and its triggers, is in place.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	busy, err := cfg.BusyTimeout()
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeConfigInvalid, err)
	}
	sdb, err := db.Open(cfg.Database.Path, busy)
	if err != nil {
		return nil, syncerrors.DatabaseError(fmt.Sprintf("failed to open database %s", cfg.Database.Path), err)
	}
	if err := db.Migrate(ctx, sdb); err != nil {
		_ = sdb.Close()
		return nil, syncerrors.New(syncerrors.ErrCodeDatabaseMigrate, "failed to migrate database schema", err)
	}
	return sdb, nil
}

// openIndex opens the configured search backend.
func openIndex(cfg *config.Config) (*index.Client, error) {
	timeout, err := cfg.MeiliTimeout()
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeConfigInvalid, err)
	}
	client, err := index.New(index.Options{
		Backend: cfg.Index.Backend,
		Bleve:   index.BleveOptions{Dir: cfg.Index.Bleve.Dir},
		Meili: index.MeiliOptions{
			Host:    cfg.Index.Meili.Host,
			APIKey:  cfg.Index.Meili.APIKey,
			Prefix:  cfg.Index.Meili.IndexPrefix,
			Timeout: timeout,
		},
	})
	if err != nil {
		return nil, syncerrors.New(syncerrors.ErrCodeIndexOpen, "failed to open search index", err)
	}
	return client, nil
}

// buildEngine wires an engine from the loaded config.
func buildEngine(cfg *config.Config, sdb *sql.DB, client *index.Client, logger *slog.Logger, m *metrics.Set) (*engine.Engine, error) {
	interval, err := cfg.UpdateInterval()
	if err != nil {
		return nil, syncerrors.Wrap(syncerrors.ErrCodeConfigInvalid, err)
	}
	eng, err := engine.New(engine.Options{
		DB:        sdb,
		Client:    client,
		Logger:    logger,
		Metrics:   m,
		ChunkSize: cfg.Update.ChunkSize,
		Interval:  interval,
		LockFile:  cfg.Update.LockFile,
	})
	if err != nil {
		return nil, syncerrors.InternalError("failed to build engine", err)
	}
	return eng, nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
