// Package storage opens the record store a process runs filters against.
package storage

import (
	"context"
	"fmt"

	"kinfilter/internal/core/tx"
	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/storage/memdb"
	"kinfilter/internal/infrastructure/storage/postgres"
	"kinfilter/pkg/logger"
)

// Store is an opened record database. Pool and Records are nil for the
// in-memory demo data.
type Store struct {
	DB          record.Database
	Snapshotter tx.Snapshotter
	Pool        *postgres.Pool
	Records     *postgres.RecordDB
}

// Options configure Open.
type Options struct {
	// DSN of the PostgreSQL database; empty opens the built-in demo data.
	DSN      string
	MaxConns int32
	// EnsureSchema creates missing tables.
	EnsureSchema bool
}

// Open connects to the configured database.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		logger.Info(ctx, "using built-in demo data")
		return &Store{DB: memdb.Demo(), Snapshotter: tx.None{}}, nil
	}

	cfg := postgres.DefaultPoolConfig(opts.DSN)
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
		if cfg.MinConns > cfg.MaxConns {
			cfg.MinConns = cfg.MaxConns
		}
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	records := postgres.NewRecordDB(postgres.NewTxManager(pool))
	if opts.EnsureSchema {
		if err := records.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Store{DB: records, Snapshotter: records, Pool: pool, Records: records}, nil
}

// Close releases the database connections.
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
