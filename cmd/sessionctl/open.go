package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/sessionkit/internal/config"
	"github.com/dshills/sessionkit/internal/persist"
	"github.com/dshills/sessionkit/internal/session"
	"github.com/dshills/sessionkit/internal/tabs"
)

const titleWidth = 32

func newOpenCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "open <path>...",
		Short: "Open files into the session and record the result",
		Long: `Open loads each file into a tab, records the open in the session index and
prints the resulting tab strip. With a database configured the session
snapshot and index are saved so later searches rank these files higher.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store, c.logger)

			index, err := c.loadIndex(ctx, store)
			if err != nil {
				return err
			}

			fs := c.filesystem()
			ctrl := c.newController(fs, index)
			defer ctrl.Close()

			var errs []error
			for _, arg := range args {
				path := arg
				if !filepath.IsAbs(path) {
					path = filepath.Join(c.root, path)
				}
				entry, err := fs.Stat(ctx, path)
				if err != nil {
					errs = append(errs, fmt.Errorf("open %s: %w", arg, err))
					continue
				}
				if err := ctrl.OpenFromNode(ctx, session.NodeFromEntry(entry)); err != nil {
					errs = append(errs, err)
				}
			}

			if err := c.persistSession(ctx, store, ctrl); err != nil {
				errs = append(errs, err)
			}
			if err := report(cmd.OutOrStdout(), ctrl, jsonOutput); err != nil {
				errs = append(errs, err)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the session snapshot as JSON")
	return cmd
}

func newRestoreCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Reopen the files of the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("restore needs a session database (--db or persist.db_path)")
			}
			defer closeStore(store, c.logger)

			snap, ok, err := store.LoadSnapshot(ctx, persist.DefaultSnapshotName)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved session")
				return nil
			}

			index, err := c.loadIndex(ctx, store)
			if err != nil {
				return err
			}

			ctrl := c.newController(c.filesystem(), index)
			defer ctrl.Close()

			restoreErr := ctrl.Restore(ctx, snap)
			if err := report(cmd.OutOrStdout(), ctrl, jsonOutput); err != nil {
				return errors.Join(restoreErr, err)
			}
			return restoreErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the session snapshot as JSON")
	return cmd
}

func newConfigCmd(c *cli) *cobra.Command {
	var showEnv bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showEnv {
				for _, name := range config.EnvVars() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			data, err := toml.Marshal(c.cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&showEnv, "env", false, "list the supported environment variables")
	return cmd
}

// report prints the tab strip, or the encoded snapshot when asJSON is set.
func report(out io.Writer, ctrl *session.Controller, asJSON bool) error {
	if asJSON {
		data, err := persist.EncodeSnapshot(ctrl.Snapshot())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", data)
		return nil
	}

	active, hasActive := ctrl.ActiveTab()
	for _, t := range ctrl.Tabs() {
		marker := " "
		if hasActive && t.ID == active.ID {
			marker = ">"
		}
		dirty := " "
		if t.Modified {
			dirty = "+"
		}
		fmt.Fprintf(out, "%s%s %-*s  %s\n", marker, dirty, titleWidth, tabs.DisplayTitle(t.Title, titleWidth), t.ID)
	}

	m := ctrl.Metrics()
	fmt.Fprintf(out, "%d open, %d dirty, %d cached\n", m.OpenTabs, m.DirtyTabs, m.CachedFiles)
	return nil
}
