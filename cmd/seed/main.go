// Package main provides a CLI tool for seeding a PostgreSQL database with
// the built-in demo records.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/storage"
	"kinfilter/internal/infrastructure/storage/memdb"
	"kinfilter/internal/infrastructure/storage/postgres"
	"kinfilter/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(logger.WithLogger(context.Background(), log), 5*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{DSN: dsn, EnsureSchema: true})
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}
	defer store.Close()

	n, err := seed(ctx, store.Records, memdb.Demo())
	if err != nil {
		log.Fatalw("seed failed", "error", err)
	}
	log.Infow("seed complete", "records", n)
}

// seed copies every record and tag of src into dst. dst must not hold any of them yet.
func seed(ctx context.Context, dst *postgres.RecordDB, src *memdb.DB) (int64, error) {
	if _, err := dst.ImportTags(ctx, src.Tags()); err != nil {
		return 0, fmt.Errorf("import tags: %w", err)
	}

	sources, err := export(ctx, src)
	if err != nil {
		return 0, err
	}
	return dst.Import(ctx, sources...)
}

// export reads every table of db in storage order.
func export(ctx context.Context, db record.Database) ([]postgres.ImportSource, error) {
	out := make([]postgres.ImportSource, 0, len(record.Kinds))
	for _, kind := range record.Kinds {
		cur, err := db.Cursor(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("open %s cursor: %w", kind, err)
		}
		src := postgres.ImportSource{Kind: kind}
		for cur.Next() {
			src.Records = append(src.Records, cur.Data())
		}
		err = cur.Err()
		_ = cur.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", kind, err)
		}
		out = append(out, src)
	}
	return out, nil
}
