// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/printer"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		email      string
		webhookURL string
		format     string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export <boardId>",
		Short: "Export a board's cards",
		Long: `Without --email the board is flattened to one row per card and written
as JSON or CSV. With --email the server hands the export to the automation
webhook, which mails it.`,
		Example: `  corkctl export b1 --format csv -o board.csv
  corkctl export b1 --email me@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return opts.out.Error("Unknown format "+format, "", []string{"Use --format json or --format csv"})
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			boardID := args[0]

			if email != "" {
				res, err := c.TriggerExport(ctx, boardID, models.ExportRequest{Email: email, WebhookURL: webhookURL})
				if err != nil {
					return opts.report("Exporting the board", err)
				}
				if !res.Success {
					return opts.out.ErrorWithContext("Export not delivered", res.Message,
						map[string]string{"cause": res.Error}, nil)
				}
				opts.out.Success("%s: %d cards for %s\n", res.Message, res.CardsExported, res.Email)
				if res.ArchiveKey != "" {
					opts.out.Info("Archived as %s\n", printer.Muted(res.ArchiveKey))
				}
				return nil
			}

			w := opts.out.Out()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return opts.out.Error("Cannot write "+output, err.Error(), nil)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			if err := writeExport(cmd, opts, w, boardID, format); err != nil {
				return err
			}
			if output != "" && output != "-" {
				opts.out.Success("Wrote %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "deliver the export to this address through the webhook")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "override the server's webhook URL")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func writeExport(cmd *cobra.Command, opts *rootOptions, w io.Writer, boardID, format string) error {
	c, err := opts.client()
	if err != nil {
		return err
	}
	if format == "csv" {
		if err := c.ExportCSV(cmd.Context(), boardID, w); err != nil {
			return opts.report("Exporting the board", err)
		}
		return nil
	}
	doc, err := c.ExportDocument(cmd.Context(), boardID)
	if err != nil {
		return opts.report("Exporting the board", err)
	}
	if err := writeJSON(w, doc); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
