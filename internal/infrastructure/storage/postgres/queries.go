package postgres

import (
	"github.com/Masterminds/squirrel"

	"kinfilter/internal/domain/record"
)

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// placeTreePrefix walks places from the roots down. A place whose parent is
// missing counts as a root; the path check stops enclosure loops.
const placeTreePrefix = `WITH RECURSIVE tree AS (
	SELECT p.handle, p.json_data, ARRAY[p.seq] AS path
	FROM place p
	WHERE p.parent_handle IS NULL
		OR NOT EXISTS (SELECT 1 FROM place pp WHERE pp.handle = p.parent_handle)
	UNION ALL
	SELECT c.handle, c.json_data, t.path || c.seq
	FROM place c
	JOIN tree t ON c.parent_handle = t.handle
	WHERE NOT c.seq = ANY(t.path)
), ordered AS (
	SELECT handle, json_data, 0 AS grp, path FROM tree
	UNION ALL
	SELECT p.handle, p.json_data, 1 AS grp, ARRAY[p.seq]
	FROM place p
	WHERE NOT EXISTS (SELECT 1 FROM tree t WHERE t.handle = p.handle)
)`

// scanQuery selects (handle, json_data) of a kind in storage order.
func scanQuery(kind record.Kind) squirrel.SelectBuilder {
	return builder().
		Select("handle", "json_data").
		From(kind.Table()).
		OrderBy("seq")
}

// treeQuery selects (handle, json_data) of a hierarchical kind parents first.
// Places are ordered depth first, siblings in insertion order, with places
// caught in enclosure loops last. Citations are grouped by source in source
// order; citations without a known source come last.
func treeQuery(kind record.Kind) squirrel.SelectBuilder {
	switch kind {
	case record.Place:
		return builder().
			Select("handle", "json_data").
			Prefix(placeTreePrefix).
			From("ordered").
			OrderBy("grp", "path")
	case record.Citation:
		return builder().
			Select("c.handle", "c.json_data").
			From("citation c").
			LeftJoin("source s ON s.handle = c.parent_handle").
			OrderBy("s.seq NULLS LAST", "c.seq")
	}
	return scanQuery(kind)
}

// page restricts a cursor query to one page.
func page(q squirrel.SelectBuilder, offset, size uint64) squirrel.SelectBuilder {
	return q.Offset(offset).Limit(size)
}

func getQuery(kind record.Kind, h record.Handle) squirrel.SelectBuilder {
	return builder().
		Select("handle", "gramps_id", "json_data").
		From(kind.Table()).
		Where(squirrel.Eq{"handle": string(h)}).
		Limit(1)
}

func grampsIDQuery(kind record.Kind, grampsID string) squirrel.SelectBuilder {
	return builder().
		Select("handle", "gramps_id", "json_data").
		From(kind.Table()).
		Where(squirrel.Eq{"gramps_id": grampsID}).
		OrderBy("seq").
		Limit(1)
}

func countQuery(kind record.Kind) squirrel.SelectBuilder {
	return builder().
		Select("count(*)").
		From(kind.Table())
}

func backlinksQuery(h record.Handle, kinds []record.Kind) squirrel.SelectBuilder {
	q := builder().
		Select("obj_class", "obj_handle").
		From("reference").
		Where(squirrel.Eq{"ref_handle": string(h)})
	if len(kinds) > 0 {
		classes := make([]string, len(kinds))
		for i, k := range kinds {
			classes[i] = string(k)
		}
		q = q.Where(squirrel.Eq{"obj_class": classes})
	}
	return q.OrderBy("obj_class", "obj_handle")
}

func tagQuery(name string) squirrel.SelectBuilder {
	return builder().
		Select("handle").
		From("tag").
		Where(squirrel.Eq{"name": name})
}

func upsertQuery(kind record.Kind, h record.Handle, grampsID string, doc []byte, parent record.Handle) squirrel.InsertBuilder {
	var parentVal any
	if parent != "" {
		parentVal = string(parent)
	}
	return builder().
		Insert(kind.Table()).
		Columns("handle", "gramps_id", "json_data", "parent_handle").
		Values(string(h), grampsID, doc, parentVal).
		Suffix("ON CONFLICT (handle) DO UPDATE SET " +
			"gramps_id = EXCLUDED.gramps_id, " +
			"json_data = EXCLUDED.json_data, " +
			"parent_handle = EXCLUDED.parent_handle")
}

func deleteReferencesQuery(h record.Handle) squirrel.DeleteBuilder {
	return builder().
		Delete("reference").
		Where(squirrel.Eq{"obj_handle": string(h)})
}

func insertReferencesQuery(kind record.Kind, h record.Handle, refs []record.Handle) squirrel.InsertBuilder {
	q := builder().
		Insert("reference").
		Columns("obj_handle", "obj_class", "ref_handle")
	for _, ref := range refs {
		q = q.Values(string(h), string(kind), string(ref))
	}
	return q.Suffix("ON CONFLICT DO NOTHING")
}

func insertTagQuery(h record.Handle, name string) squirrel.InsertBuilder {
	return builder().
		Insert("tag").
		Columns("handle", "name").
		Values(string(h), name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING handle")
}
