package record

import "context"

// Record is a record fetched by handle, with its identifying fields lifted
// out of the document.
type Record struct {
	Kind     Kind
	Handle   Handle
	GrampsID string
	Data     Data
}

// Cursor iterates (handle, data) pairs of one kind. It holds database resources
// until Close is called; callers close it on every exit path, usually by defer.
//
//	cur, err := db.Cursor(ctx, record.Person)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() { ... }
//	if err := cur.Err(); err != nil { ... }
type Cursor interface {
	Next() bool
	Handle() Handle
	Data() Data
	Err() error
	Close() error
}

// Backlink is a record referring to some other record.
type Backlink struct {
	Kind   Kind
	Handle Handle
}

// Database is the read contract of a record store.
// Lookups of missing records return an apperror NOT_FOUND.
type Database interface {
	// Cursor iterates all records of kind in storage order.
	Cursor(ctx context.Context, kind Kind) (Cursor, error)

	// TreeCursor iterates hierarchical kinds (Place, Citation) parents first.
	// For flat kinds it behaves like Cursor.
	TreeCursor(ctx context.Context, kind Kind) (Cursor, error)

	// Get returns a record by handle.
	Get(ctx context.Context, kind Kind, h Handle) (Record, error)

	// RawData returns the stored document of a record.
	RawData(ctx context.Context, kind Kind, h Handle) (Data, error)

	// Count returns the number of records of kind.
	Count(ctx context.Context, kind Kind) (int, error)

	// FromGrampsID looks a record up by its user-visible ID.
	FromGrampsID(ctx context.Context, kind Kind, grampsID string) (Record, error)

	// Backlinks lists records of the given kinds that reference h.
	// With no kinds, all referencing records are returned.
	Backlinks(ctx context.Context, h Handle, kinds ...Kind) ([]Backlink, error)

	// TagHandle resolves a tag name to its handle.
	TagHandle(ctx context.Context, name string) (Handle, error)
}
