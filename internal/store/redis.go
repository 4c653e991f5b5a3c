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

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/corkboard/internal/models"
)

// Redis layout under a namespace ns:
//
//	<ns>:board:<id>          JSON board
//	<ns>:column:<id>         JSON column
//	<ns>:card:<id>           JSON card
//	<ns>:boardcols:<boardID> set of column ids
//	<ns>:colcards:<colID>    set of card ids
//
// Read-write transactions WATCH every key before reading it and commit all
// writes in one MULTI/EXEC, so a concurrent change to anything read aborts
// the commit with redis.TxFailedErr. Read-only views are not isolated.

// NewRedisStore builds a store on an existing client. Close closes rdb.
func NewRedisStore(rdb *redis.Client, namespace string) *DocumentStore {
	if namespace == "" {
		namespace = "corkboard"
	}
	return newDocumentStore(&redisBackend{rdb: rdb, ns: namespace + ":"})
}

type redisBackend struct {
	rdb *redis.Client
	ns  string
}

func (b *redisBackend) name() string { return "redis" }

func (b *redisBackend) view(ctx context.Context, fn func(txn) error) error {
	return fn(&redisTxn{ctx: ctx, r: b.rdb, ns: b.ns})
}

func (b *redisBackend) update(ctx context.Context, fn func(txn) error) error {
	err := b.rdb.Watch(ctx, func(tx *redis.Tx) error {
		t := &redisTxn{ctx: ctx, r: tx, tx: tx, ns: b.ns}
		if err := fn(t); err != nil {
			return err
		}
		if len(t.writes) == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range t.writes {
				w(pipe)
			}
			return nil
		})
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return errContention
	}
	return err
}

func (b *redisBackend) ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *redisBackend) close() error { return b.rdb.Close() }

// redisReader is the subset of commands available on both *redis.Client and
// *redis.Tx.
type redisReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

type redisTxn struct {
	ctx    context.Context
	r      redisReader
	tx     *redis.Tx // nil for read-only views
	ns     string
	writes []func(redis.Pipeliner)
}

func (t *redisTxn) key(kind, id string) string { return t.ns + kind + ":" + id }

func (t *redisTxn) watch(keys ...string) error {
	if t.tx == nil || len(keys) == 0 {
		return nil
	}
	return t.tx.Watch(t.ctx, keys...).Err()
}

func (t *redisTxn) get(entity, kind, id string, v any) error {
	k := t.key(kind, id)
	if err := t.watch(k); err != nil {
		return err
	}
	data, err := t.r.Get(t.ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return notFound(entity, id)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", entity, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", entity, err)
	}
	return nil
}

func (t *redisTxn) getBoard(id string) (models.Board, error) {
	var b models.Board
	err := t.get(EntityBoard, "board", id, &b)
	return b, err
}

func (t *redisTxn) getColumn(id string) (models.Column, error) {
	var c models.Column
	err := t.get(EntityColumn, "column", id, &c)
	return c, err
}

func (t *redisTxn) getCard(id string) (models.Card, error) {
	var c models.Card
	err := t.get(EntityCard, "card", id, &c)
	return c, err
}

// mget loads JSON documents for keys, skipping missing ones, and hands each
// raw value to decode.
func (t *redisTxn) mget(keys []string, decode func([]byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	if err := t.watch(keys...); err != nil {
		return err
	}
	vals, err := t.r.MGet(t.ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("mget: %w", err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // missing key
		}
		if err := decode([]byte(s)); err != nil {
			return err
		}
	}
	return nil
}

// scanKeys returns every key matching pattern.
func (t *redisTxn) scanKeys(pattern string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := t.r.Scan(t.ctx, cursor, pattern, 256).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (t *redisTxn) listBoards() ([]models.Board, error) {
	keys, err := t.scanKeys(t.ns + "board:*")
	if err != nil {
		return nil, err
	}
	var boards []models.Board
	err = t.mget(keys, func(data []byte) error {
		var b models.Board
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode board: %w", err)
		}
		boards = append(boards, b)
		return nil
	})
	return boards, err
}

func (t *redisTxn) members(setKey string) ([]string, error) {
	if err := t.watch(setKey); err != nil {
		return nil, err
	}
	ids, err := t.r.SMembers(t.ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", setKey, err)
	}
	return ids, nil
}

func (t *redisTxn) columnsOf(boardID string) ([]models.Column, error) {
	ids, err := t.members(t.key("boardcols", boardID))
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = t.key("column", id)
	}
	cols := make([]models.Column, 0, len(ids))
	err = t.mget(keys, func(data []byte) error {
		var c models.Column
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode column: %w", err)
		}
		cols = append(cols, c)
		return nil
	})
	return cols, err
}

func (t *redisTxn) cardsOf(columnID string) ([]models.Card, error) {
	ids, err := t.members(t.key("colcards", columnID))
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = t.key("card", id)
	}
	cards := make([]models.Card, 0, len(ids))
	err = t.mget(keys, func(data []byte) error {
		var c models.Card
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode card: %w", err)
		}
		cards = append(cards, c)
		return nil
	})
	return cards, err
}

var errReadOnly = errors.New("write attempted in read-only view")

func (t *redisTxn) queue(w func(redis.Pipeliner)) error {
	if t.tx == nil {
		return errReadOnly
	}
	t.writes = append(t.writes, w)
	return nil
}

func (t *redisTxn) putJSON(kind, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	k := t.key(kind, id)
	return t.queue(func(p redis.Pipeliner) { p.Set(t.ctx, k, data, 0) })
}

func (t *redisTxn) del(kind, id string) error {
	k := t.key(kind, id)
	return t.queue(func(p redis.Pipeliner) { p.Del(t.ctx, k) })
}

func (t *redisTxn) putBoard(b models.Board) error   { return t.putJSON("board", b.ID, b) }
func (t *redisTxn) putColumn(c models.Column) error { return t.putJSON("column", c.ID, c) }
func (t *redisTxn) putCard(c models.Card) error     { return t.putJSON("card", c.ID, c) }

func (t *redisTxn) deleteBoard(id string) error  { return t.del("board", id) }
func (t *redisTxn) deleteColumn(id string) error { return t.del("column", id) }
func (t *redisTxn) deleteCard(id string) error   { return t.del("card", id) }

func (t *redisTxn) linkColumn(boardID, columnID string) error {
	k := t.key("boardcols", boardID)
	return t.queue(func(p redis.Pipeliner) { p.SAdd(t.ctx, k, columnID) })
}

func (t *redisTxn) unlinkColumn(boardID, columnID string) error {
	k := t.key("boardcols", boardID)
	return t.queue(func(p redis.Pipeliner) { p.SRem(t.ctx, k, columnID) })
}

func (t *redisTxn) linkCard(columnID, cardID string) error {
	k := t.key("colcards", columnID)
	return t.queue(func(p redis.Pipeliner) { p.SAdd(t.ctx, k, cardID) })
}

func (t *redisTxn) unlinkCard(columnID, cardID string) error {
	k := t.key("colcards", columnID)
	return t.queue(func(p redis.Pipeliner) { p.SRem(t.ctx, k, cardID) })
}

func (t *redisTxn) scan() (*snapshot, error) {
	snap := &snapshot{
		boardCols: make(map[string][]string),
		colCards:  make(map[string][]string),
	}

	var err error
	if snap.boards, err = t.listBoards(); err != nil {
		return nil, err
	}

	colKeys, err := t.scanKeys(t.ns + "column:*")
	if err != nil {
		return nil, err
	}
	err = t.mget(colKeys, func(data []byte) error {
		var c models.Column
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode column: %w", err)
		}
		snap.columns = append(snap.columns, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	cardKeys, err := t.scanKeys(t.ns + "card:*")
	if err != nil {
		return nil, err
	}
	err = t.mget(cardKeys, func(data []byte) error {
		var c models.Card
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode card: %w", err)
		}
		snap.cards = append(snap.cards, c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := t.collectSets("boardcols", snap.boardCols); err != nil {
		return nil, err
	}
	if err := t.collectSets("colcards", snap.colCards); err != nil {
		return nil, err
	}
	return snap, nil
}

func (t *redisTxn) collectSets(kind string, into map[string][]string) error {
	prefix := t.ns + kind + ":"
	keys, err := t.scanKeys(prefix + "*")
	if err != nil {
		return err
	}
	for _, k := range keys {
		ids, err := t.members(k)
		if err != nil {
			return err
		}
		into[strings.TrimPrefix(k, prefix)] = ids
	}
	return nil
}
