// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/corkboard/internal/models"
)

// Key layout. Index keys have empty values; the child id is the key suffix.
const (
	boardKeyPrefix    = "board:"
	columnKeyPrefix   = "column:"
	cardKeyPrefix     = "card:"
	boardColKeyPrefix = "boardcol:" // boardcol:<boardID>:<columnID>
	colCardKeyPrefix  = "colcard:"  // colcard:<columnID>:<cardID>
)

// OpenBadger opens (or creates) a badger database at path. With inMemory
// set, path is ignored and nothing touches disk.
func OpenBadger(path string, inMemory bool) (*DocumentStore, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an already open database. Close closes db.
func NewBadgerStore(db *badger.DB) *DocumentStore {
	return newDocumentStore(&badgerBackend{db: db})
}

type badgerBackend struct {
	db *badger.DB
}

func (b *badgerBackend) name() string { return "badger" }

func (b *badgerBackend) view(ctx context.Context, fn func(txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(t *badger.Txn) error {
		return fn(&badgerTxn{txn: t})
	})
}

func (b *badgerBackend) update(ctx context.Context, fn func(txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(t *badger.Txn) error {
		return fn(&badgerTxn{txn: t})
	})
	if errors.Is(err, badger.ErrConflict) {
		return errContention
	}
	return err
}

func (b *badgerBackend) ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return b.view(ctx, func(txn) error { return nil })
}

func (b *badgerBackend) close() error { return b.db.Close() }

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) getJSON(key string, v any) error {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func (t *badgerTxn) get(entity, prefix, id string, v any) error {
	err := t.getJSON(prefix+id, v)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(entity, id)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", entity, err)
	}
	return nil
}

func (t *badgerTxn) getBoard(id string) (models.Board, error) {
	var b models.Board
	err := t.get(EntityBoard, boardKeyPrefix, id, &b)
	return b, err
}

func (t *badgerTxn) getColumn(id string) (models.Column, error) {
	var c models.Column
	err := t.get(EntityColumn, columnKeyPrefix, id, &c)
	return c, err
}

func (t *badgerTxn) getCard(id string) (models.Card, error) {
	var c models.Card
	err := t.get(EntityCard, cardKeyPrefix, id, &c)
	return c, err
}

// each calls fn for every key under prefix. Values are fetched only when
// withValues is set.
func (t *badgerTxn) each(prefix string, withValues bool, fn func(key string, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = withValues
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if !withValues {
			if err := fn(key, nil); err != nil {
				return err
			}
			continue
		}
		if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
			return err
		}
	}
	return nil
}

func (t *badgerTxn) listBoards() ([]models.Board, error) {
	var boards []models.Board
	err := t.each(boardKeyPrefix, true, func(_ string, val []byte) error {
		var b models.Board
		if err := json.Unmarshal(val, &b); err != nil {
			return fmt.Errorf("decode board: %w", err)
		}
		boards = append(boards, b)
		return nil
	})
	return boards, err
}

// children returns the child ids recorded under an index prefix.
func (t *badgerTxn) children(indexPrefix, parentID string) ([]string, error) {
	prefix := indexPrefix + parentID + ":"
	var ids []string
	err := t.each(prefix, false, func(key string, _ []byte) error {
		ids = append(ids, strings.TrimPrefix(key, prefix))
		return nil
	})
	return ids, err
}

func (t *badgerTxn) columnsOf(boardID string) ([]models.Column, error) {
	ids, err := t.children(boardColKeyPrefix, boardID)
	if err != nil {
		return nil, err
	}
	cols := make([]models.Column, 0, len(ids))
	for _, id := range ids {
		c, err := t.getColumn(id)
		if errors.Is(err, ErrNotFound) {
			continue // dangling index entry; RebuildIndexes removes it
		}
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func (t *badgerTxn) cardsOf(columnID string) ([]models.Card, error) {
	ids, err := t.children(colCardKeyPrefix, columnID)
	if err != nil {
		return nil, err
	}
	cards := make([]models.Card, 0, len(ids))
	for _, id := range ids {
		c, err := t.getCard(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

func (t *badgerTxn) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return t.txn.Set([]byte(key), data)
}

func (t *badgerTxn) del(key string) error {
	if err := t.txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (t *badgerTxn) putBoard(b models.Board) error   { return t.putJSON(boardKeyPrefix+b.ID, b) }
func (t *badgerTxn) putColumn(c models.Column) error { return t.putJSON(columnKeyPrefix+c.ID, c) }
func (t *badgerTxn) putCard(c models.Card) error     { return t.putJSON(cardKeyPrefix+c.ID, c) }

func (t *badgerTxn) deleteBoard(id string) error  { return t.del(boardKeyPrefix + id) }
func (t *badgerTxn) deleteColumn(id string) error { return t.del(columnKeyPrefix + id) }
func (t *badgerTxn) deleteCard(id string) error   { return t.del(cardKeyPrefix + id) }

func (t *badgerTxn) linkColumn(boardID, columnID string) error {
	return t.txn.Set([]byte(boardColKeyPrefix+boardID+":"+columnID), []byte{})
}

func (t *badgerTxn) unlinkColumn(boardID, columnID string) error {
	return t.del(boardColKeyPrefix + boardID + ":" + columnID)
}

func (t *badgerTxn) linkCard(columnID, cardID string) error {
	return t.txn.Set([]byte(colCardKeyPrefix+columnID+":"+cardID), []byte{})
}

func (t *badgerTxn) unlinkCard(columnID, cardID string) error {
	return t.del(colCardKeyPrefix + columnID + ":" + cardID)
}

func (t *badgerTxn) scan() (*snapshot, error) {
	snap := &snapshot{
		boardCols: make(map[string][]string),
		colCards:  make(map[string][]string),
	}

	var err error
	if snap.boards, err = t.listBoards(); err != nil {
		return nil, err
	}
	err = t.each(columnKeyPrefix, true, func(_ string, val []byte) error {
		var c models.Column
		if err := json.Unmarshal(val, &c); err != nil {
			return fmt.Errorf("decode column: %w", err)
		}
		snap.columns = append(snap.columns, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = t.each(cardKeyPrefix, true, func(_ string, val []byte) error {
		var c models.Card
		if err := json.Unmarshal(val, &c); err != nil {
			return fmt.Errorf("decode card: %w", err)
		}
		snap.cards = append(snap.cards, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := t.each(boardColKeyPrefix, false, indexCollector(boardColKeyPrefix, snap.boardCols)); err != nil {
		return nil, err
	}
	if err := t.each(colCardKeyPrefix, false, indexCollector(colCardKeyPrefix, snap.colCards)); err != nil {
		return nil, err
	}
	return snap, nil
}

func indexCollector(prefix string, into map[string][]string) func(string, []byte) error {
	return func(key string, _ []byte) error {
		parent, child, ok := strings.Cut(strings.TrimPrefix(key, prefix), ":")
		if !ok {
			return nil
		}
		into[parent] = append(into[parent], child)
		return nil
	}
}
