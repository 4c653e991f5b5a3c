// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/reconcile"
)

// EventHandler observes every event a Session folds into its state.
type EventHandler func(env events.Envelope, outcome reconcile.Outcome)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithReconcileOptions passes options to the underlying Reconciler.
func WithReconcileOptions(opts ...reconcile.Option) SessionOption {
	return func(s *Session) { s.reconcileOpts = append(s.reconcileOpts, opts...) }
}

// WithEventHandler registers a callback run after each event is handled.
func WithEventHandler(h EventHandler) SessionOption {
	return func(s *Session) { s.onEvent = h }
}

// Session is one user's live view of one board.
type Session struct {
	client  *Client
	rt      *Realtime
	boardID string
	rec     *reconcile.Reconciler

	reconcileOpts []reconcile.Option
	onEvent       EventHandler
}

// Open joins boardID's room and then hydrates from REST. Joining first
// means no change can fall between the snapshot and the subscription;
// anything already in the snapshot comes back as an echo.
func Open(ctx context.Context, c *Client, boardID, userID string, opts ...SessionOption) (*Session, error) {
	rt, err := Dial(ctx, c.BaseURL(), userID)
	if err != nil {
		return nil, err
	}
	if err := rt.Join(boardID); err != nil {
		_ = rt.Close()
		return nil, err
	}
	tree, err := c.GetBoard(ctx, boardID)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("hydrate board %s: %w", boardID, err)
	}

	s := &Session{client: c, rt: rt, boardID: boardID}
	for _, opt := range opts {
		opt(s)
	}
	s.rec = reconcile.NewReconciler(tree, s.reconcileOpts...)
	return s, nil
}

// BoardID returns the board this session follows.
func (s *Session) BoardID() string { return s.boardID }

// Reconciler exposes the local state machine.
func (s *Session) Reconciler() *reconcile.Reconciler { return s.rec }

// Board returns a copy of the local board.
func (s *Session) Board() models.BoardTree {
	return s.rec.Board().Snapshot()
}

// Move relocates cardID to index in dstColumnID. The local board changes
// at once; if the server refuses, the card goes back and, on a conflict,
// the board is re-fetched so local state matches the server again.
func (s *Session) Move(ctx context.Context, cardID, dstColumnID string, index int) (models.Card, error) {
	src, _, ok := s.rec.Board().Locate(cardID)
	if !ok {
		return models.Card{}, fmt.Errorf("%w: %s", reconcile.ErrUnknownCard, cardID)
	}
	if _, err := s.rec.BeginMove(cardID, src, dstColumnID, index); err != nil {
		return models.Card{}, err
	}

	card, err := s.client.UpdateCard(ctx, s.boardID, src, cardID, models.UpdateCardRequest{
		ColumnID: &dstColumnID,
		Position: &index,
	})
	if err != nil {
		if ferr := s.rec.Fail(cardID, err); ferr != nil {
			logging.Warn().Err(ferr).Str("card_id", cardID).Msg("revert failed")
		}
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			if rerr := s.Resync(ctx); rerr != nil {
				logging.Warn().Err(rerr).Str("board_id", s.boardID).Msg("resync after rejected move failed")
			}
		}
		return models.Card{}, err
	}

	if err := s.rec.Confirm(cardID, card); err != nil {
		return card, err
	}
	return card, nil
}

// Resync replaces local state with the server's board.
func (s *Session) Resync(ctx context.Context) error {
	tree, err := s.client.GetBoard(ctx, s.boardID)
	if err != nil {
		return err
	}
	s.rec.Hydrate(tree)
	return nil
}

// Run folds realtime events into local state until ctx ends or the
// connection drops. A dropped connection returns its error; the caller
// may Open a new session, which re-hydrates since events are not replayed.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.rt.Errors():
			logging.Warn().Err(err).Str("board_id", s.boardID).Msg("server rejected realtime frame")
		case env, ok := <-s.rt.Events():
			if !ok {
				if err := s.rt.Err(); err != nil {
					return err
				}
				return ErrRealtimeClosed
			}
			outcome, err := s.rec.HandleEvent(env)
			if err != nil {
				logging.Warn().Err(err).Str("event", env.Event).Msg("event could not be applied")
			}
			if s.onEvent != nil {
				s.onEvent(env, outcome)
			}
		}
	}
}

// Close leaves the board and closes the websocket.
func (s *Session) Close() error {
	_ = s.rt.Leave(s.boardID)
	return s.rt.Close()
}
