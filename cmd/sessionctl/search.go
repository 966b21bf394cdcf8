package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/sessionkit/internal/persist"
	"github.com/dshills/sessionkit/internal/project/search"
	"github.com/dshills/sessionkit/internal/project/vfs"
	"github.com/dshills/sessionkit/internal/project/watcher"
)

func newSearchCmd(c *cli) *cobra.Command {
	var (
		limit       int
		interactive bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Fuzzy-search file names under the workspace root",
		Long: `Search ranks files under the root by fuzzy match against the query.
Recently opened files rank first and files opened often rank higher.

With --interactive, queries are read from stdin one per line and results are
printed once typing pauses for the configured debounce period.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts := c.cfg.SearchOptions()
			if cmd.Flags().Changed("limit") {
				opts.MaxResults = limit
			}

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, c.logger)

			index, err := c.loadIndex(ctx, store)
			if err != nil {
				return err
			}
			recent, err := recentPaths(ctx, store)
			if err != nil {
				return err
			}

			fs := c.filesystem()
			out := cmd.OutOrStdout()

			if !interactive {
				qo, err := search.NewQuickOpen(fs, index, opts,
					search.WithLogger(c.logger.Named("search")),
					search.WithMetrics(c.metrics))
				if err != nil {
					return err
				}
				defer qo.Close()

				results, err := qo.Search(ctx, search.Request{Query: args[0], Root: c.root, Recent: recent})
				if err != nil {
					return err
				}
				printResults(out, c.root, results)
				return nil
			}

			return c.searchInteractive(ctx, cmd.InOrStdin(), out, fs, index, opts, recent, metricsAddr)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultMaxResults, "maximum number of results")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read queries from stdin")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while interactive")

	return cmd
}

func (c *cli) searchInteractive(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	fs *vfs.CachedFS,
	index *search.SessionIndex,
	opts search.Options,
	recent []string,
	metricsAddr string,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.cfg.Watch.Enabled {
		c.watchRoot(ctx, fs, opts)
	}
	if metricsAddr != "" {
		srv := c.serveMetrics(metricsAddr)
		defer srv.Close()
	}

	qo, err := search.NewQuickOpen(fs, index, opts,
		search.WithLogger(c.logger.Named("search")),
		search.WithMetrics(c.metrics),
		search.OnResults(func(resp search.Response) {
			if resp.Err != nil {
				fmt.Fprintf(out, "error: %v\n", resp.Err)
				return
			}
			fmt.Fprintf(out, "> %s\n", resp.Request.Query)
			printResults(out, c.root, resp.Results)
		}))
	if err != nil {
		return err
	}
	defer qo.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		qo.SetQuery(search.Request{Query: scanner.Text(), Root: c.root, Recent: recent})
	}
	qo.Flush()
	return scanner.Err()
}

// watchRoot drops cached listings when entries under the root change.
// Failure to watch is logged and does not stop the search.
func (c *cli) watchRoot(ctx context.Context, fs *vfs.CachedFS, opts search.Options) {
	logger := c.logger.Named("watcher")
	w, err := watcher.NewDirWatcher(
		watcher.WithDepth(opts.MaxDepth),
		watcher.WithSkip(func(name string) bool {
			return slices.Contains(opts.SkipDirs, name)
		}),
	)
	if err != nil {
		logger.Warn("file watching disabled", zap.Error(err))
		return
	}
	if err := w.AddTree(c.root); err != nil {
		logger.Warn("file watching disabled", zap.String("root", c.root), zap.Error(err))
		_ = w.Close()
		return
	}

	go func() {
		defer w.Close()
		watcher.FeedInvalidator(ctx, w, fs, logger)
	}()
}

func (c *cli) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("metrics server", zap.Error(err))
		}
	}()
	c.logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// recentPaths returns the open paths of the persisted snapshot.
func recentPaths(ctx context.Context, store *persist.Store) ([]string, error) {
	if store == nil {
		return nil, nil
	}
	snap, ok, err := store.LoadSnapshot(ctx, persist.DefaultSnapshotName)
	if err != nil || !ok {
		return nil, err
	}
	return snap.OpenPaths, nil
}

func printResults(out io.Writer, root string, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "no matches")
		return
	}
	for _, r := range results {
		name := r.Path
		if rel, err := filepath.Rel(root, r.Path); err == nil {
			name = rel
		}
		marker := " "
		if r.Recent {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %6d  %s\n", marker, r.Score, name)
	}
}
