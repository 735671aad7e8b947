package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/domain/record"
)

func TestScanQuery(t *testing.T) {
	sql, args, err := page(scanQuery(record.Person), 0, 500).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT handle, json_data FROM person ORDER BY seq LIMIT 500 OFFSET 0", sql)
	assert.Empty(t, args)

	sql, _, err = page(scanQuery(record.Note), 1000, 500).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "FROM note ORDER BY seq LIMIT 500 OFFSET 1000"), sql)
}

func TestTreeQuery(t *testing.T) {
	t.Run("place", func(t *testing.T) {
		sql, _, err := treeQuery(record.Place).ToSql()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sql, "WITH RECURSIVE tree AS"), sql)
		assert.True(t, strings.HasSuffix(sql, "SELECT handle, json_data FROM ordered ORDER BY grp, path"), sql)
	})

	t.Run("citation", func(t *testing.T) {
		sql, _, err := treeQuery(record.Citation).ToSql()
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT c.handle, c.json_data FROM citation c LEFT JOIN source s ON s.handle = c.parent_handle ORDER BY s.seq NULLS LAST, c.seq",
			sql)
	})

	t.Run("flat kinds scan", func(t *testing.T) {
		tree, _, err := treeQuery(record.Event).ToSql()
		require.NoError(t, err)
		scan, _, err := scanQuery(record.Event).ToSql()
		require.NoError(t, err)
		assert.Equal(t, scan, tree)
	})
}

func TestLookupQueries(t *testing.T) {
	sql, args, err := getQuery(record.Family, "F1").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT handle, gramps_id, json_data FROM family WHERE handle = $1 LIMIT 1", sql)
	assert.Equal(t, []any{"F1"}, args)

	sql, args, err = grampsIDQuery(record.Person, "I0001").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT handle, gramps_id, json_data FROM person WHERE gramps_id = $1 ORDER BY seq LIMIT 1", sql)
	assert.Equal(t, []any{"I0001"}, args)

	sql, _, err = countQuery(record.Media).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(*) FROM media", sql)

	sql, args, err = tagQuery("ToDo").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT handle FROM tag WHERE name = $1", sql)
	assert.Equal(t, []any{"ToDo"}, args)
}

func TestBacklinksQuery(t *testing.T) {
	sql, args, err := backlinksQuery("P1", nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT obj_class, obj_handle FROM reference WHERE ref_handle = $1 ORDER BY obj_class, obj_handle", sql)
	assert.Equal(t, []any{"P1"}, args)

	sql, args, err = backlinksQuery("P1", []record.Kind{record.Person, record.Family}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT obj_class, obj_handle FROM reference WHERE ref_handle = $1 AND obj_class IN ($2,$3) ORDER BY obj_class, obj_handle",
		sql)
	assert.Equal(t, []any{"P1", "Person", "Family"}, args)
}

func TestWriteQueries(t *testing.T) {
	t.Run("upsert root", func(t *testing.T) {
		sql, args, err := upsertQuery(record.Place, "PL1", "P0001", []byte(`{}`), "").ToSql()
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sql,
			"INSERT INTO place (handle,gramps_id,json_data,parent_handle) VALUES ($1,$2,$3,$4) ON CONFLICT (handle) DO UPDATE"), sql)
		require.Len(t, args, 4)
		assert.Nil(t, args[3])
	})

	t.Run("upsert child", func(t *testing.T) {
		_, args, err := upsertQuery(record.Place, "PL2", "P0002", []byte(`{}`), "PL1").ToSql()
		require.NoError(t, err)
		assert.Equal(t, "PL1", args[3])
	})

	t.Run("references", func(t *testing.T) {
		sql, args, err := insertReferencesQuery(record.Family, "F1", []record.Handle{"I1", "I2"}).ToSql()
		require.NoError(t, err)
		assert.Equal(t,
			"INSERT INTO reference (obj_handle,obj_class,ref_handle) VALUES ($1,$2,$3),($4,$5,$6) ON CONFLICT DO NOTHING",
			sql)
		assert.Equal(t, []any{"F1", "Family", "I1", "F1", "Family", "I2"}, args)

		sql, args, err = deleteReferencesQuery("F1").ToSql()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM reference WHERE obj_handle = $1", sql)
		assert.Equal(t, []any{"F1"}, args)
	})

	t.Run("tag", func(t *testing.T) {
		sql, args, err := insertTagQuery("T1", "ToDo").ToSql()
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(sql, "RETURNING handle"), sql)
		assert.Equal(t, []any{"T1", "ToDo"}, args)
	})
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements()
	require.Len(t, stmts, len(record.Kinds)+1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS person (")
	assert.Contains(t, stmts[0], "person_gramps_id_idx")
	assert.Contains(t, stmts[len(stmts)-1], "CREATE TABLE IF NOT EXISTS reference")
}

func TestImportRow(t *testing.T) {
	data := record.Data{
		"gramps_id":     "P0002",
		"placeref_list": []any{map[string]any{"ref": "PL1"}},
	}
	row, err := importRow(record.Place, data)
	require.NoError(t, err)
	require.Len(t, row, 4)

	assert.NotEmpty(t, data.Handle())
	assert.Equal(t, "Place", data.Class())
	assert.Equal(t, string(data.Handle()), row[0])
	assert.Equal(t, "P0002", row[1])
	assert.Contains(t, string(row[2].([]byte)), `"_class":"Place"`)
	assert.Equal(t, "PL1", row[3])
}
