// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/corkboard/internal/cache"
	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
	"github.com/tomtom215/corkboard/internal/models"
)

// Phase is where a card's move interaction stands.
type Phase int

const (
	Idle Phase = iota
	OptimisticallyApplied
	Reconciled
	Reverted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case OptimisticallyApplied:
		return "optimistically_applied"
	case Reconciled:
		return "reconciled"
	case Reverted:
		return "reverted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome describes what HandleEvent did with an event.
type Outcome int

const (
	// Applied means local state changed.
	Applied Outcome = iota
	// Echo means local state already matched the event.
	Echo
	// Duplicate means the event was seen before and skipped.
	Duplicate
	// Ignored means the event does not concern this board or is unknown.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Echo:
		return "echo"
	case Duplicate:
		return "duplicate"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

var (
	// ErrMoveInFlight rejects a second move of a card whose first move has
	// not been confirmed or failed.
	ErrMoveInFlight = errors.New("move already in flight for card")

	// ErrStaleSource means the card is not in the column the caller named.
	ErrStaleSource = errors.New("card is not in the source column")

	// ErrNoPendingMove is returned by Confirm and Fail for unknown cards.
	ErrNoPendingMove = errors.New("no pending move for card")
)

// PendingMove is an optimistic move awaiting the server's answer.
type PendingMove struct {
	CardID              string
	SourceColumnID      string
	DestinationColumnID string
	Index               int
	StartedAt           time.Time

	// Snapshot is the board as it was before the move.
	Snapshot models.BoardTree

	// superseded is set once an authoritative event or a re-hydrate has
	// placed the card, after which neither Confirm nor Fail may touch it.
	superseded bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDedupCapacity bounds the recently-seen event set.
func WithDedupCapacity(n int) Option {
	return func(r *Reconciler) { r.dedupCapacity = n }
}

// WithDedupTTL forgets seen events after ttl. Zero keeps them until
// evicted by capacity.
func WithDedupTTL(ttl time.Duration) Option {
	return func(r *Reconciler) { r.dedupTTL = ttl }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// Reconciler applies optimistic moves locally and folds server events back
// in without flicker or duplication. It is safe for concurrent use.
type Reconciler struct {
	mu            sync.Mutex
	state         *BoardState
	pending       map[string]*PendingMove
	phases        map[string]Phase
	present       map[string]bool
	seen          *cache.LRUCache
	dedupCapacity int
	dedupTTL      time.Duration
	now           func() time.Time
}

// NewReconciler starts from a hydrated board.
func NewReconciler(tree models.BoardTree, opts ...Option) *Reconciler {
	r := &Reconciler{
		state:         NewBoardState(tree),
		pending:       make(map[string]*PendingMove),
		phases:        make(map[string]Phase),
		present:       make(map[string]bool),
		dedupCapacity: 1024,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.seen = cache.NewLRUCache(r.dedupCapacity, r.dedupTTL).WithClock(r.now)
	return r
}

// Board exposes the local state.
func (r *Reconciler) Board() *BoardState {
	return r.state
}

// State returns the phase of cardID's latest move interaction.
func (r *Reconciler) State(cardID string) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phases[cardID]
}

// Pending returns the in-flight move for cardID.
func (r *Reconciler) Pending(cardID string) (PendingMove, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[cardID]
	if !ok {
		return PendingMove{}, false
	}
	return *p, true
}

// Present lists users seen joining the board and not yet leaving, sorted.
func (r *Reconciler) Present() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.present))
	for u := range r.present {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// BeginMove applies a move locally before the server has seen it.
func (r *Reconciler) BeginMove(cardID, srcColumnID, dstColumnID string, index int) (models.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.pending[cardID]; busy {
		return models.Card{}, fmt.Errorf("%w: %s", ErrMoveInFlight, cardID)
	}
	colID, _, ok := r.state.Locate(cardID)
	if !ok {
		return models.Card{}, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	if colID != srcColumnID {
		return models.Card{}, fmt.Errorf("%w: %s is in %s", ErrStaleSource, cardID, colID)
	}

	snapshot := r.state.Snapshot()
	card, err := r.state.ApplyMove(cardID, dstColumnID, index)
	if err != nil {
		return models.Card{}, err
	}
	r.pending[cardID] = &PendingMove{
		CardID:              cardID,
		SourceColumnID:      srcColumnID,
		DestinationColumnID: dstColumnID,
		Index:               index,
		StartedAt:           r.now(),
		Snapshot:            snapshot,
	}
	r.phases[cardID] = OptimisticallyApplied
	return card, nil
}

// Confirm settles a pending move with the card the server returned. When
// the server placed the card somewhere other than the optimistic guess, the
// server's placement wins.
func (r *Reconciler) Confirm(cardID string, card models.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPendingMove, cardID)
	}
	delete(r.pending, cardID)
	r.phases[cardID] = Reconciled

	if p.superseded {
		return nil
	}
	if _, err := r.state.ApplyCard(card); err != nil {
		return err
	}
	return nil
}

// Fail undoes a pending move after the server rejected it. The card goes
// back to where the pre-move snapshot had it; other local changes made
// since the move began are kept.
func (r *Reconciler) Fail(cardID string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPendingMove, cardID)
	}
	delete(r.pending, cardID)
	r.phases[cardID] = Reverted
	metrics.RecordReconcile("reverted")

	logging.Debug().
		Err(cause).
		Str("card_id", cardID).
		Str("destination_column_id", p.DestinationColumnID).
		Bool("superseded", p.superseded).
		Msg("reverting optimistic move")

	if p.superseded {
		return nil
	}
	colID, idx, found := locate(&p.Snapshot, cardID)
	if !found {
		return nil
	}
	if _, _, still := r.state.Locate(cardID); !still {
		// Deleted remotely while the move was in flight.
		return nil
	}
	if _, err := r.state.ApplyMove(cardID, colID, idx); err != nil {
		if errors.Is(err, ErrUnknownColumn) {
			// The source column is gone; nothing to put the card back into.
			return nil
		}
		return err
	}
	metrics.ReconcileReverts.Inc()
	return nil
}

// Hydrate replaces local state after a (re)connect. In-flight moves are
// marked superseded since the fetched board already reflects them or not.
func (r *Reconciler) Hydrate(tree models.BoardTree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Replace(tree)
	for _, p := range r.pending {
		p.superseded = true
	}
}

// HandleEvent folds one server event into local state.
func (r *Reconciler) HandleEvent(env events.Envelope) (Outcome, error) {
	outcome, err := r.handle(env)
	metrics.RecordReconcile(outcome.String())
	return outcome, err
}

func (r *Reconciler) handle(env events.Envelope) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if env.BoardID != r.state.BoardID() {
		return Ignored, nil
	}
	if r.seen.IsDuplicate(env.DedupKey()) {
		return Duplicate, nil
	}

	switch env.Event {
	case events.CardMoved:
		var p models.CardMoved
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		return r.cardMoved(p)

	case events.CardCreated:
		var p models.CardCreated
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		return changed(r.state.ApplyCreate(p.Card))

	case events.CardUpdated:
		var p models.CardUpdated
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		return changed(r.state.ApplyUpdate(p.Card))

	case events.CardDeleted:
		var p models.CardDeleted
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		if pm, ok := r.pending[p.ID]; ok {
			pm.superseded = true
		}
		return changed(r.state.ApplyDelete(p.ID), nil)

	case events.ColumnCreated, events.ColumnUpdated, events.ColumnMoved:
		var p models.ColumnChanged
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		return changed(r.state.ApplyColumn(p.Column), nil)

	case events.ColumnDeleted:
		var p models.ColumnDeleted
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		return changed(r.state.ApplyColumnDelete(p.ID), nil)

	case events.BoardUpdated:
		var p models.BoardChanged
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		return changed(r.state.ApplyBoard(p.Board), nil)

	case events.BoardDeleted:
		for _, pm := range r.pending {
			pm.superseded = true
		}
		return changed(r.state.MarkDeleted(), nil)

	case events.UserJoined, events.UserLeft:
		var p models.UserPresence
		if err := env.Decode(&p); err != nil {
			return Ignored, err
		}
		joined := env.Event == events.UserJoined
		if r.present[p.UserID] == joined {
			return Echo, nil
		}
		if joined {
			r.present[p.UserID] = true
		} else {
			delete(r.present, p.UserID)
		}
		return Applied, nil
	}
	return Ignored, nil
}

// cardMoved compares the authoritative placement with local state. A match
// is the echo of a move this client already applied.
func (r *Reconciler) cardMoved(p models.CardMoved) (Outcome, error) {
	card := p.Card
	if card.ColumnID == "" {
		card.ColumnID = p.DestinationColumnID
	}

	pm, pending := r.pending[card.ID]
	colID, idx, ok := r.state.Locate(card.ID)
	if ok && colID == card.ColumnID && idx == card.Position {
		if pending {
			r.phases[card.ID] = Reconciled
		}
		// Pick up any field changes carried on the event.
		if _, err := r.state.ApplyUpdate(card); err != nil {
			return Echo, err
		}
		return Echo, nil
	}

	if _, err := r.state.ApplyCard(card); err != nil {
		return Ignored, err
	}
	if pending {
		pm.superseded = true
		r.phases[card.ID] = Reconciled
	}
	return Applied, nil
}

func changed(did bool, err error) (Outcome, error) {
	if err != nil {
		return Ignored, err
	}
	if did {
		return Applied, nil
	}
	return Echo, nil
}
