package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/sessionkit/internal/config"
	"github.com/dshills/sessionkit/internal/logging"
	"github.com/dshills/sessionkit/internal/metrics"
	"github.com/dshills/sessionkit/internal/persist"
	"github.com/dshills/sessionkit/internal/project/search"
	"github.com/dshills/sessionkit/internal/project/vfs"
	"github.com/dshills/sessionkit/internal/session"
)

// cli carries state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	configPath string
	root       string
	logLevel   string
	dbPath     string

	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Inspect and drive a file editing session",
		Long:          `sessionctl opens files into a session, searches a workspace with quick-open ranking and persists session snapshots.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	flags.StringVarP(&c.root, "root", "r", ".", "workspace root directory")
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&c.dbPath, "db", "", "session database path (overrides persist.db_path)")

	rootCmd.AddCommand(newSearchCmd(c))
	rootCmd.AddCommand(newOpenCmd(c))
	rootCmd.AddCommand(newRestoreCmd(c))
	rootCmd.AddCommand(newConfigCmd(c))

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = c.logLevel
	}
	if cmd.Flags().Changed("db") {
		cfg.Persist.DBPath = c.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := filepath.Abs(c.root)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", c.root, err)
	}
	c.root = root

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	c.registry = prometheus.NewRegistry()
	c.metrics = metrics.New(c.registry)
	return nil
}

// filesystem returns the OS file system behind a listing cache.
func (c *cli) filesystem() *vfs.CachedFS {
	return vfs.NewCachedFS(vfs.NewOSFS())
}

// openStore opens the session database, or returns nil when persistence is
// disabled.
func (c *cli) openStore(ctx context.Context) (*persist.Store, error) {
	if c.cfg.Persist.DBPath == "" {
		return nil, nil
	}
	return persist.Open(ctx, c.cfg.Persist.DBPath, c.logger.Named("persist"))
}

// loadIndex returns the persisted session index, or an empty one.
func (c *cli) loadIndex(ctx context.Context, store *persist.Store) (*search.SessionIndex, error) {
	index := search.NewSessionIndex()
	if store == nil {
		return index, nil
	}
	entries, err := store.LoadIndex(ctx)
	if err != nil {
		return nil, err
	}
	index.Load(entries)
	return index, nil
}

// newController builds a controller over fs sharing index.
func (c *cli) newController(fs *vfs.CachedFS, index *search.SessionIndex) *session.Controller {
	return session.New(fs, c.cfg.SessionOptions(),
		session.WithLogger(c.logger),
		session.WithMetrics(c.metrics),
		session.WithSessionIndex(index),
		session.WithInvalidator(fs),
	)
}

// persistSession stores the controller's snapshot and the session index.
func (c *cli) persistSession(ctx context.Context, store *persist.Store, ctrl *session.Controller) error {
	if store == nil {
		return nil
	}
	if err := store.SaveSnapshot(ctx, persist.DefaultSnapshotName, ctrl.Snapshot()); err != nil {
		return err
	}
	return store.SaveIndex(ctx, ctrl.SessionIndex().Export())
}

func closeStore(store *persist.Store, logger *zap.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("closing session database", zap.Error(err))
	}
}
