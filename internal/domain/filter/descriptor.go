package filter

import (
	"context"

	"kinfilter/internal/domain/record"
)

// Descriptor binds the evaluation engine to one record kind. These functions are
// the only per-kind variation; the algorithm in Filter is kind-agnostic.
type Descriptor struct {
	Kind record.Kind

	Cursor func(ctx context.Context, db record.Database) (record.Cursor, error)
	// TreeCursor is nil for flat kinds; Filter falls back to Cursor.
	TreeCursor func(ctx context.Context, db record.Database) (record.Cursor, error)

	New     func() record.Data
	Lookup  func(ctx context.Context, db record.Database, h record.Handle) (record.Record, error)
	RawData func(ctx context.Context, db record.Database, h record.Handle) (record.Data, error)
	Count   func(ctx context.Context, db record.Database) (int, error)
}

func bind(kind record.Kind) *Descriptor {
	d := &Descriptor{
		Kind: kind,
		Cursor: func(ctx context.Context, db record.Database) (record.Cursor, error) {
			return db.Cursor(ctx, kind)
		},
		New: func() record.Data {
			return record.New(kind)
		},
		Lookup: func(ctx context.Context, db record.Database, h record.Handle) (record.Record, error) {
			return db.Get(ctx, kind, h)
		},
		RawData: func(ctx context.Context, db record.Database, h record.Handle) (record.Data, error) {
			return db.RawData(ctx, kind, h)
		},
		Count: func(ctx context.Context, db record.Database) (int, error) {
			return db.Count(ctx, kind)
		},
	}
	if kind.Hierarchical() {
		d.TreeCursor = func(ctx context.Context, db record.Database) (record.Cursor, error) {
			return db.TreeCursor(ctx, kind)
		}
	}
	return d
}

// Per-kind descriptors.
var (
	PersonKind     = bind(record.Person)
	FamilyKind     = bind(record.Family)
	EventKind      = bind(record.Event)
	SourceKind     = bind(record.Source)
	CitationKind   = bind(record.Citation)
	PlaceKind      = bind(record.Place)
	MediaKind      = bind(record.Media)
	RepositoryKind = bind(record.Repository)
	NoteKind       = bind(record.Note)
)

var descriptors = map[record.Kind]*Descriptor{
	record.Person:     PersonKind,
	record.Family:     FamilyKind,
	record.Event:      EventKind,
	record.Source:     SourceKind,
	record.Citation:   CitationKind,
	record.Place:      PlaceKind,
	record.Media:      MediaKind,
	record.Repository: RepositoryKind,
	record.Note:       NoteKind,
}

// DescriptorFor returns the descriptor bound to kind, or nil for an unknown kind.
func DescriptorFor(kind record.Kind) *Descriptor {
	return descriptors[kind]
}

// NewForNamespace creates an empty filter of the type registered for namespace.
// Unknown namespaces are a caller error.
func NewForNamespace(namespace string) (*Filter, error) {
	kind, err := record.ParseKind(namespace)
	if err != nil {
		return nil, err
	}
	return New(DescriptorFor(kind)), nil
}

// cursor opens the flat or tree cursor for the descriptor.
func (d *Descriptor) cursor(ctx context.Context, db record.Database, tree bool) (record.Cursor, error) {
	if tree && d.TreeCursor != nil {
		return d.TreeCursor(ctx, db)
	}
	return d.Cursor(ctx, db)
}
