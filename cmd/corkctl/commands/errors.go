// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"errors"
	"strconv"

	"github.com/tomtom215/corkboard/internal/client"
	"github.com/tomtom215/corkboard/internal/reconcile"
)

// report prints err in the printer's titled form and returns the error
// the command should exit with.
func (o *rootOptions) report(action string, err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		switch {
		case errors.Is(err, reconcile.ErrUnknownCard):
			return o.out.Error("Card not on this board", err.Error(),
				[]string{"List the board's cards with `corkctl board show <boardId>`"})
		case errors.Is(err, reconcile.ErrMoveInFlight):
			return o.out.Error("Move already in progress", err.Error(), nil)
		default:
			return o.out.ErrorWithContext("Cannot reach Corkboard", err.Error(),
				map[string]string{"server": o.server},
				[]string{
					"Start the server with `corkboard`",
					"Point corkctl at it with --server or " + envServer,
				})
		}
	}

	details := map[string]string{"status": strconv.Itoa(apiErr.Status)}
	if apiErr.RequestID != "" {
		details["request id"] = apiErr.RequestID
	}

	switch {
	case errors.Is(err, client.ErrConflict):
		if c, ok := apiErr.Conflict(); ok {
			details["card"] = c.CardID
			details["expected column"] = c.ExpectedColumnID
			details["actual column"] = c.ActualColumnID
		}
		return o.out.ErrorWithContext(action+" conflicted with another change", apiErr.Message, details,
			[]string{"Someone else moved the card first. Re-run with the current board from `corkctl board show`"})
	case errors.Is(err, client.ErrNotFound):
		return o.out.ErrorWithContext("Not found", apiErr.Message, details,
			[]string{"Check the id with `corkctl boards list` or `corkctl board show <boardId>`"})
	case errors.Is(err, client.ErrValidation):
		for _, f := range apiErr.Fields() {
			details[f.Field] = f.Message
		}
		return o.out.ErrorWithContext(action+" was rejected", apiErr.Message, details, nil)
	case errors.Is(err, client.ErrRateLimited):
		return o.out.ErrorWithContext("Rate limited", apiErr.Message, details,
			[]string{"Wait a moment and try again"})
	default:
		return o.out.ErrorWithContext(action+" failed", apiErr.Message, details, nil)
	}
}
