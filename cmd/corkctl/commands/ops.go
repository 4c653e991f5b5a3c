// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"time"

	"github.com/spf13/cobra"
)

func newRepairCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Rebuild the server's store indexes and fix card positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.Repair(cmd.Context())
			if err != nil {
				return opts.report("Repair", err)
			}
			renderRepair(opts.out, res.Report)
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the server is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			h, err := c.Ready(cmd.Context())
			if err != nil {
				return opts.report("Readiness check", err)
			}
			opts.out.Success("%s is %s\n", c.BaseURL(), h.Status)
			opts.out.Printf("  store connected: %v\n", h.StoreConnected)
			opts.out.Printf("  uptime:          %s\n", time.Duration(h.Uptime*float64(time.Second)).Round(time.Second))
			opts.out.Printf("  realtime:        %d clients in %d rooms\n", h.WSClients, h.WSRooms)
			return nil
		},
	}
}
