// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package export

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
)

// DefaultWebhookURL is used when neither the request nor configuration
// names an endpoint.
const DefaultWebhookURL = "http://localhost:5678/webhook/kanban-export"

// BoardReader loads the tree to export.
type BoardReader interface {
	GetBoardTree(ctx context.Context, boardID string) (models.BoardTree, error)
}

// Sender delivers a payload to a webhook URL.
type Sender interface {
	Send(ctx context.Context, target string, payload WebhookPayload) error
}

// Result is the body of POST /boards/{boardId}/export.
type Result struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Email         string `json:"email,omitempty"`
	CardsExported int    `json:"cardsExported"`
	ArchiveKey    string `json:"archiveKey,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Service assembles export documents and triggers delivery.
type Service struct {
	boards     BoardReader
	sender     Sender
	archiver   Archiver
	webhookURL string
	now        func() time.Time
}

// NewService creates an export service. configuredURL may be empty;
// archiver may be nil.
func NewService(boards BoardReader, sender Sender, archiver Archiver, configuredURL string) *Service {
	return &Service{
		boards:     boards,
		sender:     sender,
		archiver:   archiver,
		webhookURL: configuredURL,
		now:        time.Now,
	}
}

// Document loads boardID and flattens it. Errors come from the board
// reader unchanged so callers can map NotFound.
func (s *Service) Document(ctx context.Context, boardID string) (Document, error) {
	tree, err := s.boards.GetBoardTree(ctx, boardID)
	if err != nil {
		return Document{}, err
	}
	return NewDocument(tree, s.now()), nil
}

// ResolveWebhookURL picks the request URL, then the configured URL, then
// the default.
func (s *Service) ResolveWebhookURL(requested string) string {
	switch {
	case requested != "":
		return requested
	case s.webhookURL != "":
		return s.webhookURL
	default:
		return DefaultWebhookURL
	}
}

// Trigger delivers boardID's export for req.Email. Only a failure to read
// the board is returned as an error; delivery problems are reported in
// the Result.
func (s *Service) Trigger(ctx context.Context, boardID string, req models.ExportRequest) (Result, error) {
	doc, err := s.Document(ctx, boardID)
	if err != nil {
		return Result{}, err
	}
	log := logging.Ctx(ctx)

	res := Result{Email: req.Email, CardsExported: doc.TotalCards}
	target := s.ResolveWebhookURL(req.WebhookURL)

	if err := s.sender.Send(ctx, target, WebhookPayload{Email: req.Email, BoardData: doc}); err != nil {
		log.Warn().Err(err).Str("board_id", boardID).Msg("export delivery failed")
		res.Error = err.Error()
		switch {
		case errors.Is(err, ErrDownstreamUnavailable):
			res.Message = "Export endpoint is unavailable; make sure the automation service is running"
		case errors.Is(err, ErrDownstreamRejected):
			res.Message = "Export endpoint rejected the delivery"
		case errors.Is(err, ErrInvalidWebhookURL):
			res.Message = "Export webhook URL is invalid"
		default:
			res.Message = "Export could not be started"
		}
		return res, nil
	}

	res.Success = true
	res.Message = "Export started"

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, doc)
		if err != nil {
			log.Warn().Err(err).Str("board_id", boardID).Msg("export archive failed")
		} else {
			res.ArchiveKey = key
		}
	}

	log.Info().
		Str("board_id", boardID).
		Int("cards", doc.TotalCards).
		Str("archive_key", res.ArchiveKey).
		Msg("export delivered")
	return res, nil
}
