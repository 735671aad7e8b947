package postgres

import (
	"context"
	"fmt"

	"kinfilter/internal/domain/record"
)

// Every kind is stored in its own table. parent_handle holds the enclosing
// place of a place and the source of a citation; seq keeps insertion order.
const kindTableDDL = `
CREATE TABLE IF NOT EXISTS %[1]s (
	handle        text PRIMARY KEY,
	gramps_id     text,
	json_data     jsonb NOT NULL,
	parent_handle text,
	seq           bigserial
);
CREATE INDEX IF NOT EXISTS %[1]s_gramps_id_idx ON %[1]s (gramps_id);
CREATE INDEX IF NOT EXISTS %[1]s_seq_idx ON %[1]s (seq);
`

const referenceDDL = `
CREATE TABLE IF NOT EXISTS reference (
	obj_handle text NOT NULL,
	obj_class  text NOT NULL,
	ref_handle text NOT NULL,
	PRIMARY KEY (obj_handle, ref_handle)
);
CREATE INDEX IF NOT EXISTS reference_ref_handle_idx ON reference (ref_handle);

CREATE TABLE IF NOT EXISTS tag (
	handle text PRIMARY KEY,
	name   text NOT NULL UNIQUE
);
`

// SchemaStatements returns the DDL creating every table.
func SchemaStatements() []string {
	stmts := make([]string, 0, len(record.Kinds)+1)
	for _, kind := range record.Kinds {
		stmts = append(stmts, fmt.Sprintf(kindTableDDL, kind.Table()))
	}
	return append(stmts, referenceDDL)
}

// EnsureSchema creates the tables if they do not exist.
func (db *RecordDB) EnsureSchema(ctx context.Context) error {
	return db.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := db.txm.GetQuerier(ctx)
		for _, stmt := range SchemaStatements() {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
		}
		return nil
	})
}
