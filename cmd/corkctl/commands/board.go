// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newBoardCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and edit a single board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newBoardShowCmd(opts), newBoardDeleteCmd(opts), newColumnAddCmd(opts))
	return cmd
}

func newBoardShowCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <boardId>",
		Short: "Print a board with its columns and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			tree, err := c.GetBoard(cmd.Context(), args[0])
			if err != nil {
				return opts.report("Loading the board", err)
			}
			if asJSON {
				return writeJSON(opts.out.Out(), tree)
			}
			renderBoard(opts.out, tree)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the board tree as JSON")
	return cmd
}

func newBoardDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <boardId>",
		Short: "Delete a board with all its columns and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.DeleteBoard(cmd.Context(), args[0])
			if err != nil {
				return opts.report("Deleting the board", err)
			}
			opts.out.Success("Deleted board %s (%d columns, %d cards)\n", args[0], len(res.DeletedColumns), len(res.DeletedCards))
			return nil
		},
	}
}

func newColumnAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-column <boardId> <title>",
		Short: "Append a column to a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createColumn(cmd.Context(), opts, args[0], args[1])
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
