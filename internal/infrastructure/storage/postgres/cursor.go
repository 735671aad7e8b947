package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/record"
)

// pagedCursor reads a query one page at a time. Each page is fully read and
// its rows closed before the caller sees the first item, so rules may query
// the same transaction while the cursor is open.
type pagedCursor struct {
	ctx    context.Context
	q      Querier
	kind   record.Kind
	base   squirrel.SelectBuilder
	size   uint64
	offset uint64

	rows []cursorRow
	pos  int
	last bool

	handle record.Handle
	data   record.Data
	err    error
	closed bool
}

type cursorRow struct {
	Handle   string `db:"handle"`
	JSONData []byte `db:"json_data"`
}

func (db *RecordDB) newCursor(ctx context.Context, kind record.Kind, q squirrel.SelectBuilder) (record.Cursor, error) {
	c := &pagedCursor{
		ctx:  ctx,
		q:    db.txm.GetQuerier(ctx),
		kind: kind,
		base: q,
		size: db.pageSize,
	}
	if err := c.fetch(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *pagedCursor) fetch() error {
	sql, args, err := page(c.base, c.offset, c.size).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	c.rows = c.rows[:0]
	if err := pgxscan.Select(c.ctx, c.q, &c.rows, sql, args...); err != nil {
		return apperror.NewDatabase(fmt.Errorf("scan %s at %d: %w", c.kind, c.offset, err))
	}
	c.offset += uint64(len(c.rows))
	c.pos = 0
	c.last = uint64(len(c.rows)) < c.size
	return nil
}

func (c *pagedCursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	if c.pos >= len(c.rows) {
		if c.last {
			return false
		}
		if c.err = c.fetch(); c.err != nil || len(c.rows) == 0 {
			return false
		}
	}

	row := c.rows[c.pos]
	c.pos++
	data, err := record.Decode(row.JSONData)
	if err != nil {
		c.err = fmt.Errorf("decode %s %s: %w", c.kind, row.Handle, err)
		return false
	}
	c.handle = record.Handle(row.Handle)
	c.data = data
	return true
}

func (c *pagedCursor) Handle() record.Handle { return c.handle }
func (c *pagedCursor) Data() record.Data     { return c.data }
func (c *pagedCursor) Err() error            { return c.err }

func (c *pagedCursor) Close() error {
	c.closed = true
	c.rows = nil
	return nil
}
