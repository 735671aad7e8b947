package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/core/handle"
	"kinfilter/internal/domain/record"
	"kinfilter/pkg/logger"
)

// ImportSource yields the documents of one kind to import.
type ImportSource struct {
	Kind    record.Kind
	Records []record.Data
}

// Import bulk loads records into empty tables using the COPY protocol,
// then loads their references. Records with an existing handle fail the
// whole import; use Put to update single records.
func (db *RecordDB) Import(ctx context.Context, sources ...ImportSource) (int64, error) {
	var total int64
	err := db.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := db.txm.GetTx(ctx)
		if tx == nil {
			return fmt.Errorf("import requires transaction context")
		}

		var refs [][]any
		for _, src := range sources {
			rows := make([][]any, 0, len(src.Records))
			for _, data := range src.Records {
				row, err := importRow(src.Kind, data)
				if err != nil {
					return err
				}
				rows = append(rows, row)
				h := data.Handle()
				for _, ref := range record.ReferencedHandles(data) {
					refs = append(refs, []any{string(h), string(src.Kind), string(ref)})
				}
			}

			n, err := tx.CopyFrom(ctx, pgx.Identifier{src.Kind.Table()},
				[]string{"handle", "gramps_id", "json_data", "parent_handle"}, pgx.CopyFromRows(rows))
			if err != nil {
				return fmt.Errorf("copy %s: %w", src.Kind, err)
			}
			total += n
			logger.Debug(ctx, "records copied", "kind", src.Kind, "count", n)
		}

		if len(refs) > 0 {
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"reference"},
				[]string{"obj_handle", "obj_class", "ref_handle"}, pgx.CopyFromRows(refs)); err != nil {
				return fmt.Errorf("copy references: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperror.NewDatabase(err)
	}
	return total, nil
}

func importRow(kind record.Kind, data record.Data) ([]any, error) {
	if data.Handle() == "" {
		data["handle"] = handle.New()
	}
	if data.Class() == "" {
		data["_class"] = string(kind)
	}
	doc, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", kind, data.Handle(), err)
	}

	var parent any
	if p := record.ParentHandle(kind, data); p != "" {
		parent = string(p)
	}
	return []any{string(data.Handle()), data.GrampsID(), doc, parent}, nil
}

// ImportTags registers tags with the given handles in one round trip and
// returns name -> stored handle. A name that already exists keeps its handle.
func (db *RecordDB) ImportTags(ctx context.Context, tags map[string]record.Handle) (map[string]record.Handle, error) {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]record.Handle, len(tags))
	err := db.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := db.txm.GetTx(ctx)
		if tx == nil {
			return fmt.Errorf("import requires transaction context")
		}

		batch := &pgx.Batch{}
		for _, name := range names {
			h := tags[name]
			if h == "" {
				h = record.Handle(handle.New())
			}
			sql, args, err := insertTagQuery(h, name).ToSql()
			if err != nil {
				return fmt.Errorf("build query: %w", err)
			}
			batch.Queue(sql, args...)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for _, name := range names {
			var h string
			if err := results.QueryRow().Scan(&h); err != nil {
				return fmt.Errorf("tag %q: %w", name, err)
			}
			out[name] = record.Handle(h)
		}
		return nil
	})
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	return out, nil
}
