package filterfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
	"kinfilter/internal/infrastructure/storage/memdb"
)

const sample = `<?xml version="1.0" encoding="utf-8"?>
<filters>
  <object type="Person">
    <filter name="Smiths" function="and" comment="everyone named Smith">
      <rule class="HasNameOf" use_regex="False">
        <arg value=""/>
        <arg value="Smith"/>
      </rule>
    </filter>
    <filter name="Smith men" function="and">
      <rule class="MatchesFilter" use_regex="False">
        <arg value="Smiths"/>
      </rule>
      <rule class="IsMale" use_regex="False"/>
    </filter>
    <filter name="Not Smiths" invert="1">
      <rule class="MatchesFilter" use_regex="False">
        <arg value="Smiths"/>
      </rule>
    </filter>
  </object>
  <object type="Place">
    <filter name="Illinois" function="or">
      <rule class="IsEnclosedBy" use_regex="False">
        <arg value="P0005"/>
        <arg value="1"/>
      </rule>
      <rule class="HasField" use_regex="True">
        <arg value="name.value"/>
        <arg value="^spring"/>
      </rule>
    </filter>
  </object>
</filters>
`

func apply(t *testing.T, lib *filter.Library, kind record.Kind, name string) []record.Handle {
	t.Helper()
	f, err := lib.Lookup(kind, name)
	require.NoError(t, err)
	got, err := f.Apply(context.Background(), memdb.Demo(), filter.ApplyOptions{})
	require.NoError(t, err)
	return got
}

func TestLoad(t *testing.T) {
	lib, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []record.Kind{record.Person, record.Place}, lib.Kinds())
	smiths := lib.Get(record.Person, "Smiths")
	require.NotNil(t, smiths)
	assert.Equal(t, "everyone named Smith", smiths.Comment)
	assert.Equal(t, filter.And, smiths.LogicalOp)

	not := lib.Get(record.Person, "Not Smiths")
	require.NotNil(t, not)
	assert.True(t, not.Invert)
	assert.Equal(t, filter.And, not.LogicalOp, "function defaults to and")

	assert.Equal(t, []record.Handle{"i0001", "i0003", "i0004", "i0006"}, apply(t, lib, record.Person, "Smiths"))
	assert.Equal(t, []record.Handle{"i0001", "i0003", "i0006"}, apply(t, lib, record.Person, "Smith men"))
	assert.Equal(t, []record.Handle{"i0002", "i0005"}, apply(t, lib, record.Person, "Not Smiths"))
	assert.Equal(t, []record.Handle{"p0004", "p0005"}, apply(t, lib, record.Place, "Illinois"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"unknown rule", `<filters><object type="Person"><filter name="x"><rule class="Nope"/></filter></object></filters>`, apperror.CodeUnknownRule},
		{"rule of another namespace", `<filters><object type="Event"><filter name="x"><rule class="IsMale"/></filter></object></filters>`, apperror.CodeUnknownRule},
		{"bad function", `<filters><object type="Person"><filter name="x" function="xor"/></object></filters>`, apperror.CodeInvalidOperator},
		{"unknown namespace", `<filters><object type="Widget"/></filters>`, apperror.CodeUnknownNamespace},
		{"bad rule args", `<filters><object type="Place"><filter name="x"><rule class="WithinArea"><arg value="1"/></rule></filter></object></filters>`, apperror.CodeInvalidRuleArgs},
		{"malformed", `<filters><object`, apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestLoadInto_AllOrNothing(t *testing.T) {
	lib := filter.NewLibrary()
	doc := `<filters><object type="Person">
		<filter name="ok"><rule class="IsMale"/></filter>
		<filter name="bad"><rule class="Nope"/></filter>
	</object></filters>`
	require.Error(t, LoadInto(strings.NewReader(doc), lib))
	assert.Empty(t, lib.Kinds())
}

func TestSave_RoundTrip(t *testing.T) {
	lib, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, lib))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<filter name="Not Smiths" function="and" invert="1">`)
	assert.Contains(t, out, `<rule class="HasField" use_regex="True">`)

	again, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, apply(t, lib, record.Place, "Illinois"), apply(t, again, record.Place, "Illinois"))
	assert.Equal(t, apply(t, lib, record.Person, "Smith men"), apply(t, again, record.Person, "Smith men"))
}

func TestSave_UnsavableRule(t *testing.T) {
	lib := filter.NewLibrary()
	inner := filter.New(filter.PersonKind)
	outer := filter.New(filter.PersonKind)
	outer.SetName("outer")
	outer.AddRule(inner)
	lib.Add(outer)

	err := Save(&bytes.Buffer{}, lib)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestFile_Compression(t *testing.T) {
	lib, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	for _, name := range []string{"custom_filters.xml", "custom_filters.xml.gz", "custom_filters.xml.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveFile(path, lib))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if strings.HasSuffix(name, ".xml") {
				assert.True(t, bytes.HasPrefix(raw, []byte("<?xml")))
			} else {
				assert.False(t, bytes.HasPrefix(raw, []byte("<?xml")), "compressed on disk")
			}

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []record.Handle{"i0002", "i0005"}, apply(t, loaded, record.Person, "Not Smiths"))
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
