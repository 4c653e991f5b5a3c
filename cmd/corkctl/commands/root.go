// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package commands implements the corkctl command tree.
package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/corkboard/internal/client"
	"github.com/tomtom215/corkboard/internal/config"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/printer"
	"github.com/tomtom215/corkboard/internal/reconcile"
)

const (
	envServer      = "CORKBOARD_URL"
	envUser        = "CORKBOARD_USER"
	defaultServer  = "http://localhost:3000"
	defaultTimeout = 15 * time.Second
)

// rootOptions holds global flags and the objects built from them.
type rootOptions struct {
	server   string
	user     string
	timeout  time.Duration
	logLevel string

	out       *printer.Printer
	reconcile config.ReconcileConfig
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "corkctl",
		Short: "corkctl - terminal client for Corkboard",
		Long: `corkctl manages boards, columns and cards on a Corkboard server and
follows boards live over the realtime channel.

Moves are optimistic: the local board changes at once and is reverted if
the server rejects the move.`,
		// No subcommand shows help rather than succeeding silently.
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.server, "server", envOr(envServer, defaultServer), "Corkboard server URL (env "+envServer+")")
	pf.StringVar(&opts.user, "user", envOr(envUser, os.Getenv("USER")), "user id shown to other board members (env "+envUser+")")
	pf.DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-request timeout")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics on stderr")

	root.AddCommand(
		newBoardsCmd(opts),
		newBoardCmd(opts),
		newCardCmd(opts),
		newWatchCmd(opts),
		newExportCmd(opts),
		newRepairCmd(opts),
		newStatusCmd(opts),
	)
	return root
}

// Execute runs corkctl with os.Args. Errors the printer has not already
// shown, such as unknown flags or missing arguments, are printed here.
func Execute(version, commit, date string) error {
	root := NewRootCommand()
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	err := root.Execute()
	reportUsageError(root, err)
	return err
}

func reportUsageError(root *cobra.Command, err error) {
	var reported *printer.ReportedError
	if err == nil || errors.As(err, &reported) {
		return
	}
	fmt.Fprintf(root.ErrOrStderr(), "Error: %v\nRun '%s --help' for usage.\n", err, root.Name())
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	o.out = printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	logging.Init(logging.Config{
		Level:  o.logLevel,
		Format: "console",
		Output: cmd.ErrOrStderr(),
	})

	// Reconcile tuning comes from the shared configuration when it loads;
	// a server-side misconfiguration must not break the CLI.
	cfg, err := config.Load()
	if err != nil {
		logging.Debug().Err(err).Msg("using default configuration")
		cfg = config.Defaults()
	}
	o.reconcile = cfg.Reconcile
	return nil
}

func (o *rootOptions) client() (*client.Client, error) {
	c, err := client.New(o.server, client.WithTimeout(o.timeout), client.WithUserAgent("corkctl"))
	if err != nil {
		return nil, o.out.Error("Invalid server URL", err.Error(),
			[]string{"Pass --server http://host:port or set " + envServer})
	}
	return c, nil
}

func (o *rootOptions) sessionOptions(extra ...client.SessionOption) []client.SessionOption {
	opts := []client.SessionOption{
		client.WithReconcileOptions(
			reconcile.WithDedupCapacity(o.reconcile.DedupCapacity),
			reconcile.WithDedupTTL(o.reconcile.DedupTTL),
		),
	}
	return append(opts, extra...)
}
