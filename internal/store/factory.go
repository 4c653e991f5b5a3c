// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// BackendType selects the persistence backend.
type BackendType string

const (
	// BackendBadger is an embedded on-disk (or in-memory) database. Default.
	BackendBadger BackendType = "badger"

	// BackendRedis stores documents in an external Redis server.
	BackendRedis BackendType = "redis"
)

// Options configures Open.
type Options struct {
	Backend BackendType

	// Badger
	Path     string
	InMemory bool

	// Redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string
}

// Open builds the configured backend and verifies it is reachable.
func Open(ctx context.Context, opts Options) (*DocumentStore, error) {
	switch opts.Backend {
	case BackendBadger, "":
		return OpenBadger(opts.Path, opts.InMemory)

	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close() //nolint:errcheck
			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}
		return NewRedisStore(rdb, opts.RedisNamespace), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
