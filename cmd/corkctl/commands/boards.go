// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/printer"
)

func newBoardsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List and create boards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newBoardsListCmd(opts), newBoardsCreateCmd(opts))
	return cmd
}

func newBoardsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List boards, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			boards, err := c.ListBoards(cmd.Context())
			if err != nil {
				return opts.report("Listing boards", err)
			}
			if len(boards) == 0 {
				opts.out.Info("No boards yet. Create one with `corkctl boards create <title>`\n")
				return nil
			}
			return renderBoards(opts.out.Out(), boards)
		},
	}
}

func newBoardsCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		description string
		columns     []string
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a board",
		Example: `  corkctl boards create "Launch plan"
  corkctl boards create Sprint --columns "To Do,Doing,Done"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := c.CreateBoard(ctx, models.CreateBoardRequest{
				Title:       strings.Join(args, " "),
				Description: description,
			})
			if err != nil {
				return opts.report("Creating the board", err)
			}
			opts.out.Success("Created board %s %s\n", printer.Emphasis(b.Title), printer.Muted(b.ID))

			for _, title := range columns {
				if err := createColumn(ctx, opts, b.ID, title); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "board description")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to create, left to right")
	return cmd
}

func createColumn(ctx context.Context, opts *rootOptions, boardID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	c, err := opts.client()
	if err != nil {
		return err
	}
	col, err := c.CreateColumn(ctx, boardID, models.CreateColumnRequest{Title: title})
	if err != nil {
		return opts.report("Creating column "+title, err)
	}
	opts.out.Step("Added column %s %s\n", col.Title, printer.Muted(col.ID))
	return nil
}
