package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/apperror"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("Tag")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownNamespace))

	_, err = ParseKind("person")
	assert.Error(t, err, "namespace tags are case-sensitive")
}

func TestKind_Table(t *testing.T) {
	assert.Equal(t, "person", Person.Table())
	assert.Equal(t, "repository", Repository.Table())
	assert.True(t, Place.Hierarchical())
	assert.True(t, Citation.Hierarchical())
	assert.False(t, Person.Hierarchical())
}

func TestData_Accessors(t *testing.T) {
	d, err := Decode([]byte(`{
		"_class": "Family",
		"handle": "F1",
		"gramps_id": "F0001",
		"father_handle": "P1",
		"mother_handle": null,
		"change": 1712345678,
		"private": true,
		"child_ref_list": [{"ref": "P3"}, {"ref": "P4"}, {"_class": "ChildRef"}],
		"tag_list": ["T1"],
		"type": {"string": "Married"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, Handle("F1"), d.Handle())
	assert.Equal(t, "F0001", d.GrampsID())
	assert.Equal(t, "Family", d.Class())
	assert.Equal(t, "", d.String("mother_handle"))
	assert.Equal(t, 1712345678, d.Int("change"))
	assert.True(t, d.Bool("private"))
	assert.Equal(t, []Handle{"P3", "P4"}, d.Refs("child_ref_list"))
	assert.Equal(t, []string{"T1"}, d.Strings("tag_list"))
	assert.Equal(t, "Married", d.Map("type").String("string"))
	assert.Nil(t, d.Map("missing"))
	assert.Len(t, d.List("child_ref_list"), 3)
}

func TestData_IntVariants(t *testing.T) {
	d := Data{"a": 3, "b": int64(4), "c": json.Number("5"), "d": "6", "e": true}
	assert.Equal(t, 3, d.Int("a"))
	assert.Equal(t, 4, d.Int("b"))
	assert.Equal(t, 5, d.Int("c"))
	assert.Equal(t, 6, d.Int("d"))
	assert.Equal(t, 0, d.Int("e"))
}

func TestNew_DefaultInstance(t *testing.T) {
	for _, k := range Kinds {
		d := New(k)
		assert.Equal(t, string(k), d.Class())
		assert.Equal(t, Handle(""), d.Handle())
	}
	assert.Equal(t, GenderUnknown, New(Person).Int("gender"))
}

func TestReferencedHandles(t *testing.T) {
	fam := Data{
		"father_handle":  "P1",
		"mother_handle":  "P2",
		"child_ref_list": []any{map[string]any{"ref": "P3"}, map[string]any{"ref": "P1"}},
		"event_ref_list": []any{map[string]any{"ref": "E1"}},
		"tag_list":       []any{"T1"},
	}
	assert.Equal(t, []Handle{"P1", "P2", "E1", "P3", "T1"}, ReferencedHandles(fam))
}

func TestParentHandle(t *testing.T) {
	place := Data{"placeref_list": []any{map[string]any{"ref": "PL1"}, map[string]any{"ref": "PL2"}}}
	assert.Equal(t, Handle("PL1"), ParentHandle(Place, place))
	assert.Equal(t, Handle("S1"), ParentHandle(Citation, Data{"source_handle": "S1"}))
	assert.Equal(t, Handle(""), ParentHandle(Person, Data{"source_handle": "S1"}))
}
