// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/corkboard/internal/client"
	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/reconcile"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		duration time.Duration
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "watch <boardId>",
		Short: "Follow a board's changes live",
		Long: `Join a board's realtime room and print every change as it arrives,
together with what it did to the local copy of the board:

  applied    the local board changed
  echo       the local board already matched
  duplicate  the event was delivered twice and skipped
  ignored    the event did not concern this board

Stops on Ctrl-C, after --duration, or when the board is deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			var sess *client.Session
			deleted := make(chan struct{})
			handler := func(env events.Envelope, outcome reconcile.Outcome) {
				if quiet && outcome != reconcile.Applied {
					return
				}
				renderEvent(opts.out, env, outcome, sess.Board())
				if env.Event == events.BoardDeleted && outcome == reconcile.Applied {
					close(deleted)
				}
			}

			sess, err = client.Open(ctx, c, args[0], opts.user, opts.sessionOptions(client.WithEventHandler(handler))...)
			if err != nil {
				return opts.report("Opening the board", err)
			}
			defer func() { _ = sess.Close() }()

			renderBoard(opts.out, sess.Board())
			opts.out.Println("")
			opts.out.Info("Watching for changes, press Ctrl-C to stop\n")

			runCtx, cancelRun := context.WithCancel(ctx)
			defer cancelRun()
			go func() {
				select {
				case <-deleted:
					cancelRun()
				case <-runCtx.Done():
				}
			}()

			err = sess.Run(runCtx)
			select {
			case <-deleted:
				opts.out.Warning("Board was deleted\n")
				return nil
			default:
			}
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return opts.report("Watching the board", err)
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 watches until interrupted)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print events that changed the local board")
	return cmd
}
