package filter

import (
	"context"

	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/storage/memdb"
	"kinfilter/pkg/logger"
)

// stubRule matches a fixed set of handles and counts its calls.
type stubRule struct {
	matches  HandleSet
	empty    bool
	mapped   bool
	err      error
	applied  int
	prepares int
	resets   int
	prepared bool
}

func matching(handles ...record.Handle) *stubRule {
	return &stubRule{matches: NewHandleSet(handles...)}
}

func (r *stubRule) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	r.applied++
	if r.err != nil {
		return false, r.err
	}
	return r.matches.Contains(data.Handle()), nil
}

func (r *stubRule) RequestPrepare(context.Context, record.Database, Progress) error {
	r.prepares++
	r.prepared = true
	return nil
}

func (r *stubRule) RequestReset() {
	r.resets++
	r.prepared = false
}

func (r *stubRule) IsEmpty() bool { return r.empty }

// mappedStub additionally exposes its match set as a map once prepared.
type mappedStub struct {
	*stubRule
}

func mapped(handles ...record.Handle) mappedStub {
	return mappedStub{matching(handles...)}
}

func (r mappedStub) Map() HandleSet {
	if !r.prepared {
		return nil
	}
	return r.matches
}

// nestedStub wraps a filter the way a "matches filter" rule does.
type nestedStub struct {
	*stubRule
	target *Filter
}

func (r nestedStub) FindFilter() *Filter { return r.target }

func (r nestedStub) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	r.applied++
	if r.target == nil {
		return false, nil
	}
	return r.target.ApplyToOne(ctx, db, data)
}

func (r nestedStub) RequestPrepare(ctx context.Context, db record.Database, p Progress) error {
	r.stubRule.RequestPrepare(ctx, db, p)
	return r.target.RequestPrepare(ctx, db, p)
}

func (r nestedStub) RequestReset() {
	r.stubRule.RequestReset()
	r.target.RequestReset()
}

// countingProgress records progress notifications.
type countingProgress struct {
	begins, steps, ends int
	total               int
}

func (p *countingProgress) Begin(_, _ string, total int) { p.begins++; p.total = total }
func (p *countingProgress) Step()                        { p.steps++ }
func (p *countingProgress) End()                         { p.ends++ }

// trackingDB wraps memdb and records cursor use.
type trackingDB struct {
	*memdb.DB
	opened, closed int
	treeOpened     int
	rawFetches     int
}

func (db *trackingDB) Cursor(ctx context.Context, kind record.Kind) (record.Cursor, error) {
	cur, err := db.DB.Cursor(ctx, kind)
	if err != nil {
		return nil, err
	}
	db.opened++
	return &trackingCursor{Cursor: cur, db: db}, nil
}

func (db *trackingDB) TreeCursor(ctx context.Context, kind record.Kind) (record.Cursor, error) {
	cur, err := db.DB.TreeCursor(ctx, kind)
	if err != nil {
		return nil, err
	}
	db.opened++
	db.treeOpened++
	return &trackingCursor{Cursor: cur, db: db}, nil
}

func (db *trackingDB) RawData(ctx context.Context, kind record.Kind, h record.Handle) (record.Data, error) {
	db.rawFetches++
	return db.DB.RawData(ctx, kind, h)
}

type trackingCursor struct {
	record.Cursor
	db *trackingDB
}

func (c *trackingCursor) Close() error {
	c.db.closed++
	return c.Cursor.Close()
}

// numbered builds a database of people with handles "1".."n".
func numbered(n int) *trackingDB {
	db := memdb.New()
	for i := 1; i <= n; i++ {
		h := string(rune('0' + i))
		db.MustPut(record.Person, record.Data{"handle": h, "gramps_id": "I000" + h})
	}
	return &trackingDB{DB: db}
}

func data(h record.Handle) record.Data {
	return record.Data{"handle": string(h)}
}

func nopLogger() *logger.Logger {
	return logger.Nop()
}
