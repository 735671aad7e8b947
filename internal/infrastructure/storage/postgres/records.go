package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/core/handle"
	"kinfilter/internal/domain/record"
	"kinfilter/pkg/logger"
)

var _ record.Database = (*RecordDB)(nil)

// DefaultPageSize is the number of rows a cursor reads per query.
const DefaultPageSize = 500

// RecordDB is the PostgreSQL record store. Reads run in the transaction
// carried by ctx when there is one (see TxManager.Snapshot), otherwise on the pool.
type RecordDB struct {
	txm      *TxManager
	pageSize uint64
}

// NewRecordDB creates a record store over a transaction manager.
func NewRecordDB(txm *TxManager) *RecordDB {
	return &RecordDB{txm: txm, pageSize: DefaultPageSize}
}

// WithPageSize sets the number of rows cursors fetch per query.
func (db *RecordDB) WithPageSize(n uint64) *RecordDB {
	if n > 0 {
		db.pageSize = n
	}
	return db
}

// Snapshot runs fn against one consistent view of the data.
func (db *RecordDB) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.txm.Snapshot(ctx, fn)
}

type recordRow struct {
	Handle   string  `db:"handle"`
	GrampsID *string `db:"gramps_id"`
	JSONData []byte  `db:"json_data"`
}

func (r recordRow) toRecord(kind record.Kind) (record.Record, error) {
	data, err := record.Decode(r.JSONData)
	if err != nil {
		return record.Record{}, fmt.Errorf("decode %s %s: %w", kind, r.Handle, err)
	}
	rec := record.Record{Kind: kind, Handle: record.Handle(r.Handle), Data: data}
	if r.GrampsID != nil {
		rec.GrampsID = *r.GrampsID
	}
	return rec, nil
}

func (db *RecordDB) getOne(ctx context.Context, kind record.Kind, q squirrel.SelectBuilder, key string) (record.Record, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return record.Record{}, fmt.Errorf("build query: %w", err)
	}

	var row recordRow
	if err := pgxscan.Get(ctx, db.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return record.Record{}, apperror.NewNotFound(string(kind), key)
		}
		return record.Record{}, apperror.NewDatabase(fmt.Errorf("get %s %s: %w", kind, key, err))
	}
	return row.toRecord(kind)
}

// Get returns a record by handle.
func (db *RecordDB) Get(ctx context.Context, kind record.Kind, h record.Handle) (record.Record, error) {
	return db.getOne(ctx, kind, getQuery(kind, h), string(h))
}

// RawData returns the stored document of a record.
func (db *RecordDB) RawData(ctx context.Context, kind record.Kind, h record.Handle) (record.Data, error) {
	rec, err := db.Get(ctx, kind, h)
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// FromGrampsID looks a record up by its user-visible ID.
func (db *RecordDB) FromGrampsID(ctx context.Context, kind record.Kind, grampsID string) (record.Record, error) {
	return db.getOne(ctx, kind, grampsIDQuery(kind, grampsID), grampsID)
}

// Count returns the number of records of kind.
func (db *RecordDB) Count(ctx context.Context, kind record.Kind) (int, error) {
	sql, args, err := countQuery(kind).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := pgxscan.Get(ctx, db.txm.GetQuerier(ctx), &n, sql, args...); err != nil {
		return 0, apperror.NewDatabase(fmt.Errorf("count %s: %w", kind, err))
	}
	return n, nil
}

type backlinkRow struct {
	Class  string `db:"obj_class"`
	Handle string `db:"obj_handle"`
}

// Backlinks lists records of kinds referring to h.
func (db *RecordDB) Backlinks(ctx context.Context, h record.Handle, kinds ...record.Kind) ([]record.Backlink, error) {
	sql, args, err := backlinksQuery(h, kinds).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []backlinkRow
	if err := pgxscan.Select(ctx, db.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("backlinks of %s: %w", h, err))
	}
	out := make([]record.Backlink, len(rows))
	for i, r := range rows {
		out[i] = record.Backlink{Kind: record.Kind(r.Class), Handle: record.Handle(r.Handle)}
	}
	return out, nil
}

// TagHandle resolves a tag name.
func (db *RecordDB) TagHandle(ctx context.Context, name string) (record.Handle, error) {
	sql, args, err := tagQuery(name).ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}
	var h string
	if err := pgxscan.Get(ctx, db.txm.GetQuerier(ctx), &h, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", apperror.NewNotFound("Tag", name)
		}
		return "", apperror.NewDatabase(fmt.Errorf("tag %q: %w", name, err))
	}
	return record.Handle(h), nil
}

// Cursor iterates all records of kind in insertion order.
func (db *RecordDB) Cursor(ctx context.Context, kind record.Kind) (record.Cursor, error) {
	return db.newCursor(ctx, kind, scanQuery(kind))
}

// TreeCursor iterates places and citations parents first; other kinds like Cursor.
func (db *RecordDB) TreeCursor(ctx context.Context, kind record.Kind) (record.Cursor, error) {
	return db.newCursor(ctx, kind, treeQuery(kind))
}

// Put inserts or replaces a record and its references. A record without a
// handle gets a new one, which is returned.
func (db *RecordDB) Put(ctx context.Context, kind record.Kind, data record.Data) (record.Handle, error) {
	h := data.Handle()
	if h == "" {
		h = record.Handle(handle.New())
		data["handle"] = string(h)
	}
	if data.Class() == "" {
		data["_class"] = string(kind)
	}
	doc, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode %s %s: %w", kind, h, err)
	}

	err = db.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := db.txm.GetQuerier(ctx)

		if err := execBuilder(ctx, q, upsertQuery(kind, h, data.GrampsID(), doc, record.ParentHandle(kind, data))); err != nil {
			return fmt.Errorf("upsert %s %s: %w", kind, h, err)
		}
		if err := execBuilder(ctx, q, deleteReferencesQuery(h)); err != nil {
			return fmt.Errorf("clear references of %s: %w", h, err)
		}
		if refs := record.ReferencedHandles(data); len(refs) > 0 {
			if err := execBuilder(ctx, q, insertReferencesQuery(kind, h, refs)); err != nil {
				return fmt.Errorf("insert references of %s: %w", h, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", apperror.NewDatabase(err)
	}
	logger.Debug(ctx, "record stored", "kind", kind, "handle", h)
	return h, nil
}

// AddTag registers a tag and returns its handle. An existing tag keeps its handle.
func (db *RecordDB) AddTag(ctx context.Context, name string) (record.Handle, error) {
	sql, args, err := insertTagQuery(record.Handle(handle.New()), name).ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}
	var h string
	if err := db.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&h); err != nil {
		return "", apperror.NewDatabase(fmt.Errorf("add tag %q: %w", name, err))
	}
	return record.Handle(h), nil
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func execBuilder(ctx context.Context, q Querier, b sqlizer) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}
