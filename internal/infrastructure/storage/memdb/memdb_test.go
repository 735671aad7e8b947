package memdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/core/handle"
	"kinfilter/internal/domain/record"
)

func collect(t *testing.T, cur record.Cursor) []record.Handle {
	t.Helper()
	defer cur.Close()
	var out []record.Handle
	for cur.Next() {
		assert.Equal(t, cur.Handle(), cur.Data().Handle())
		out = append(out, cur.Handle())
	}
	require.NoError(t, cur.Err())
	return out
}

func TestCursor_InsertionOrder(t *testing.T) {
	db := Demo()
	cur, err := db.Cursor(context.Background(), record.Place)
	require.NoError(t, err)
	assert.Equal(t, []record.Handle{"p0001", "p0002", "p0003", "p0004", "p0005"}, collect(t, cur))
}

func TestTreeCursor_Places(t *testing.T) {
	db := Demo()
	cur, err := db.TreeCursor(context.Background(), record.Place)
	require.NoError(t, err)
	assert.Equal(t, []record.Handle{"p0001", "p0002", "p0003", "p0005", "p0004"}, collect(t, cur))
}

func TestTreeCursor_CitationsBySource(t *testing.T) {
	db := Demo()
	cur, err := db.TreeCursor(context.Background(), record.Citation)
	require.NoError(t, err)
	assert.Equal(t, []record.Handle{"c0002", "c0001", "c0003"}, collect(t, cur))
}

func TestTreeCursor_FlatKindFallsBack(t *testing.T) {
	db := Demo()
	cur, err := db.TreeCursor(context.Background(), record.Family)
	require.NoError(t, err)
	assert.Equal(t, []record.Handle{"f0001", "f0002"}, collect(t, cur))
}

func TestTreeCursor_PlaceLoop(t *testing.T) {
	db := New()
	db.MustPut(record.Place, place("p0001", "A", "p0002", "", ""))
	db.MustPut(record.Place, place("p0002", "B", "p0001", "", ""))
	cur, err := db.TreeCursor(context.Background(), record.Place)
	require.NoError(t, err)
	assert.ElementsMatch(t, []record.Handle{"p0001", "p0002"}, collect(t, cur))
}

func TestCursor_ClosedStopsIteration(t *testing.T) {
	db := Demo()
	cur, err := db.Cursor(context.Background(), record.Person)
	require.NoError(t, err)
	require.True(t, cur.Next())
	require.NoError(t, cur.Close())
	assert.False(t, cur.Next())
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	db := Demo()

	rec, err := db.Get(ctx, record.Person, "i0003")
	require.NoError(t, err)
	assert.Equal(t, "I0003", rec.GrampsID)
	assert.Equal(t, record.Person, rec.Kind)

	rec, err = db.FromGrampsID(ctx, record.Family, "F0002")
	require.NoError(t, err)
	assert.Equal(t, record.Handle("f0002"), rec.Handle)

	_, err = db.RawData(ctx, record.Person, "nope")
	assert.True(t, apperror.IsNotFound(err))
	_, err = db.FromGrampsID(ctx, record.Person, "I9999")
	assert.True(t, apperror.IsNotFound(err))

	n, err := db.Count(ctx, record.Person)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestBacklinks(t *testing.T) {
	ctx := context.Background()
	db := Demo()

	links, err := db.Backlinks(ctx, "e0002", record.Family)
	require.NoError(t, err)
	assert.Equal(t, []record.Backlink{{Kind: record.Family, Handle: "f0001"}}, links)

	links, err = db.Backlinks(ctx, "e0002", record.Person)
	require.NoError(t, err)
	assert.Empty(t, links)

	links, err = db.Backlinks(ctx, "i0003")
	require.NoError(t, err)
	assert.ElementsMatch(t, []record.Backlink{
		{Kind: record.Family, Handle: "f0001"},
		{Kind: record.Family, Handle: "f0002"},
	}, links)
}

func TestPut_ReplaceUpdatesIndexes(t *testing.T) {
	ctx := context.Background()
	db := Demo()

	fam, err := db.RawData(ctx, record.Family, "f0002")
	require.NoError(t, err)
	updated := record.Data{}
	for k, v := range fam {
		updated[k] = v
	}
	updated["child_ref_list"] = []any{}
	updated["gramps_id"] = "F0009"
	_, err = db.Put(record.Family, updated)
	require.NoError(t, err)

	links, err := db.Backlinks(ctx, "i0006", record.Family)
	require.NoError(t, err)
	assert.Empty(t, links)

	_, err = db.FromGrampsID(ctx, record.Family, "F0002")
	assert.True(t, apperror.IsNotFound(err))
	n, _ := db.Count(ctx, record.Family)
	assert.Equal(t, 2, n)
}

func TestPut_AssignsHandle(t *testing.T) {
	db := New()
	h, err := db.Put(record.Note, record.Data{"gramps_id": "N0001"})
	require.NoError(t, err)
	assert.True(t, handle.Valid(string(h)))

	data, err := db.RawData(context.Background(), record.Note, h)
	require.NoError(t, err)
	assert.Equal(t, "Note", data.Class())
}

func TestTags(t *testing.T) {
	db := Demo()
	h, err := db.TagHandle(context.Background(), "ToDo")
	require.NoError(t, err)
	assert.Equal(t, h, db.AddTag("ToDo"))

	_, err = db.TagHandle(context.Background(), "Done")
	assert.True(t, apperror.IsNotFound(err))

	tags := db.Tags()
	assert.Equal(t, map[string]record.Handle{"ToDo": h}, tags)
	tags["Done"] = "x"
	assert.Len(t, db.Tags(), 1, "Tags returns a copy")
}
