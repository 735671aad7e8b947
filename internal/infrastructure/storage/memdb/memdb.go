// Package memdb provides an in-memory record database. It backs the demo
// dataset of the CLI and the tests of every package that evaluates filters.
package memdb

import (
	"context"
	"slices"
	"sync"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/core/handle"
	"kinfilter/internal/domain/record"
)

// DB is an in-memory record.Database. Records keep insertion order.
type DB struct {
	mu        sync.RWMutex
	tables    map[record.Kind]*table
	backlinks map[record.Handle][]record.Backlink
	tags      map[string]record.Handle
}

type table struct {
	order    []record.Handle
	rows     map[record.Handle]record.Data
	byGramps map[string]record.Handle
}

var _ record.Database = (*DB)(nil)

// New creates an empty database.
func New() *DB {
	db := &DB{
		tables:    make(map[record.Kind]*table, len(record.Kinds)),
		backlinks: make(map[record.Handle][]record.Backlink),
		tags:      make(map[string]record.Handle),
	}
	for _, k := range record.Kinds {
		db.tables[k] = &table{
			rows:     make(map[record.Handle]record.Data),
			byGramps: make(map[string]record.Handle),
		}
	}
	return db
}

// Put inserts or replaces a record. A record without a handle gets a fresh one.
// It returns the record's handle.
func (db *DB) Put(kind record.Kind, data record.Data) (record.Handle, error) {
	t, ok := db.tables[kind]
	if !ok {
		return "", apperror.NewUnknownNamespace(string(kind))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	h := data.Handle()
	if h == "" {
		h = record.Handle(handle.New())
		data["handle"] = string(h)
	}
	if _, ok := data["_class"]; !ok {
		data["_class"] = string(kind)
	}

	if old, exists := t.rows[h]; exists {
		delete(t.byGramps, old.GrampsID())
		db.unlink(h, old)
	} else {
		t.order = append(t.order, h)
	}
	t.rows[h] = data
	if id := data.GrampsID(); id != "" {
		t.byGramps[id] = h
	}
	for _, ref := range record.ReferencedHandles(data) {
		db.backlinks[ref] = append(db.backlinks[ref], record.Backlink{Kind: kind, Handle: h})
	}
	return h, nil
}

// MustPut is Put for fixtures; it panics on error.
func (db *DB) MustPut(kind record.Kind, data record.Data) record.Handle {
	h, err := db.Put(kind, data)
	if err != nil {
		panic(err)
	}
	return h
}

func (db *DB) unlink(h record.Handle, old record.Data) {
	for _, ref := range record.ReferencedHandles(old) {
		db.backlinks[ref] = slices.DeleteFunc(db.backlinks[ref], func(b record.Backlink) bool {
			return b.Handle == h
		})
	}
}

// AddTag registers a tag and returns its handle.
func (db *DB) AddTag(name string) record.Handle {
	db.mu.Lock()
	defer db.mu.Unlock()

	if h, ok := db.tags[name]; ok {
		return h
	}
	h := record.Handle(handle.New())
	db.tags[name] = h
	return h
}

func (db *DB) table(kind record.Kind) (*table, error) {
	t, ok := db.tables[kind]
	if !ok {
		return nil, apperror.NewUnknownNamespace(string(kind))
	}
	return t, nil
}

// Cursor iterates a snapshot of the table in insertion order.
func (db *DB) Cursor(_ context.Context, kind record.Kind) (record.Cursor, error) {
	t, err := db.table(kind)
	if err != nil {
		return nil, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return newCursor(t, slices.Clone(t.order)), nil
}

// TreeCursor iterates places parents-first (depth first, siblings in insertion
// order) and citations grouped by source. Other kinds use insertion order.
func (db *DB) TreeCursor(ctx context.Context, kind record.Kind) (record.Cursor, error) {
	if !kind.Hierarchical() {
		return db.Cursor(ctx, kind)
	}
	t, err := db.table(kind)
	if err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	var order []record.Handle
	if kind == record.Place {
		order = treeOrder(t)
	} else {
		order = db.citationOrder(t)
	}
	return newCursor(t, order), nil
}

func treeOrder(t *table) []record.Handle {
	children := make(map[record.Handle][]record.Handle)
	var roots []record.Handle
	for _, h := range t.order {
		parent := record.ParentHandle(record.Place, t.rows[h])
		if _, ok := t.rows[parent]; parent == "" || !ok {
			roots = append(roots, h)
			continue
		}
		children[parent] = append(children[parent], h)
	}

	seen := make(map[record.Handle]bool, len(t.order))
	order := make([]record.Handle, 0, len(t.order))
	var visit func(h record.Handle)
	visit = func(h record.Handle) {
		if seen[h] {
			return
		}
		seen[h] = true
		order = append(order, h)
		for _, c := range children[h] {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	// places caught in an enclosure loop have no root
	for _, h := range t.order {
		visit(h)
	}
	return order
}

func (db *DB) citationOrder(t *table) []record.Handle {
	bySource := make(map[record.Handle][]record.Handle)
	for _, h := range t.order {
		src := record.ParentHandle(record.Citation, t.rows[h])
		bySource[src] = append(bySource[src], h)
	}
	order := make([]record.Handle, 0, len(t.order))
	for _, src := range db.tables[record.Source].order {
		order = append(order, bySource[src]...)
		delete(bySource, src)
	}
	for _, h := range t.order {
		src := record.ParentHandle(record.Citation, t.rows[h])
		if _, orphan := bySource[src]; orphan {
			order = append(order, h)
		}
	}
	return order
}

// Get returns a record by handle.
func (db *DB) Get(ctx context.Context, kind record.Kind, h record.Handle) (record.Record, error) {
	data, err := db.RawData(ctx, kind, h)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{Kind: kind, Handle: h, GrampsID: data.GrampsID(), Data: data}, nil
}

// RawData returns the stored document.
func (db *DB) RawData(_ context.Context, kind record.Kind, h record.Handle) (record.Data, error) {
	t, err := db.table(kind)
	if err != nil {
		return nil, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	data, ok := t.rows[h]
	if !ok {
		return nil, apperror.NewNotFound(string(kind), string(h))
	}
	return data, nil
}

// Count returns the number of records of kind.
func (db *DB) Count(_ context.Context, kind record.Kind) (int, error) {
	t, err := db.table(kind)
	if err != nil {
		return 0, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(t.order), nil
}

// FromGrampsID looks a record up by its user-visible ID.
func (db *DB) FromGrampsID(ctx context.Context, kind record.Kind, grampsID string) (record.Record, error) {
	t, err := db.table(kind)
	if err != nil {
		return record.Record{}, err
	}
	db.mu.RLock()
	h, ok := t.byGramps[grampsID]
	db.mu.RUnlock()
	if !ok {
		return record.Record{}, apperror.NewNotFound(string(kind), grampsID)
	}
	return db.Get(ctx, kind, h)
}

// Backlinks lists records of kinds referring to h.
func (db *DB) Backlinks(_ context.Context, h record.Handle, kinds ...record.Kind) ([]record.Backlink, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []record.Backlink
	for _, b := range db.backlinks[h] {
		if len(kinds) == 0 || slices.Contains(kinds, b.Kind) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Tags returns a copy of the tag name -> handle table.
func (db *DB) Tags() map[string]record.Handle {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string]record.Handle, len(db.tags))
	for name, h := range db.tags {
		out[name] = h
	}
	return out
}

// TagHandle resolves a tag name.
func (db *DB) TagHandle(_ context.Context, name string) (record.Handle, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if h, ok := db.tags[name]; ok {
		return h, nil
	}
	return "", apperror.NewNotFound("Tag", name)
}

// cursor walks a fixed list of handles.
type cursor struct {
	t      *table
	order  []record.Handle
	pos    int
	closed bool
}

func newCursor(t *table, order []record.Handle) *cursor {
	return &cursor{t: t, order: order, pos: -1}
}

func (c *cursor) Next() bool {
	if c.closed {
		return false
	}
	c.pos++
	return c.pos < len(c.order)
}

func (c *cursor) Handle() record.Handle {
	return c.order[c.pos]
}

func (c *cursor) Data() record.Data {
	return c.t.rows[c.order[c.pos]]
}

func (c *cursor) Err() error {
	return nil
}

func (c *cursor) Close() error {
	c.closed = true
	return nil
}
