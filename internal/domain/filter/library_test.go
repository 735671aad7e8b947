package filter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/record"
)

func named(kind *Descriptor, name string) *Filter {
	f := New(kind)
	f.Name = name
	return f
}

func TestLibrary_AddGetRemove(t *testing.T) {
	lib := NewLibrary()
	a := named(PersonKind, "Smiths")
	b := named(PersonKind, "Living")
	e := named(EventKind, "Smiths")

	lib.Add(a)
	lib.Add(b)
	lib.Add(e)

	assert.Same(t, a, lib.Get(record.Person, "Smiths"))
	assert.Same(t, e, lib.Get(record.Event, "Smiths"))
	assert.Nil(t, lib.Get(record.Family, "Smiths"))
	assert.Equal(t, []*Filter{a, b}, lib.List(record.Person))
	assert.Equal(t, []record.Kind{record.Person, record.Event}, lib.Kinds())

	a2 := named(PersonKind, "Smiths")
	lib.Add(a2)
	assert.Equal(t, []*Filter{a2, b}, lib.List(record.Person), "same name replaces in place")

	assert.True(t, lib.Remove(record.Person, "Smiths"))
	assert.False(t, lib.Remove(record.Person, "Smiths"))
	assert.Equal(t, []*Filter{b}, lib.List(record.Person))
}

func TestLibrary_Lookup(t *testing.T) {
	lib := NewLibrary()
	lib.Add(named(PlaceKind, "Boston area"))

	f, err := lib.Lookup(record.Place, "Boston area")
	require.NoError(t, err)
	assert.Equal(t, "Boston area", f.Name)

	_, err = lib.Lookup(record.Place, "Springfield")
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeFilterNotFound))
}

func TestLibrary_Replace(t *testing.T) {
	lib := NewLibrary()
	lib.Add(named(PersonKind, "Old"))
	lib.Add(named(PlaceKind, "Old places"))

	a := named(PersonKind, "Smiths")
	b := named(EventKind, "Births")
	a2 := named(PersonKind, "Smiths")
	lib.Replace(a, b, a2)

	assert.Nil(t, lib.Get(record.Person, "Old"))
	assert.Empty(t, lib.List(record.Place))
	assert.Equal(t, []*Filter{a2}, lib.List(record.Person), "later duplicate wins")
	assert.Same(t, b, lib.Get(record.Event, "Births"))

	lib.Replace()
	assert.Empty(t, lib.Kinds())
}

func TestLibrary_ListIsACopy(t *testing.T) {
	lib := NewLibrary()
	lib.Add(named(NoteKind, "n"))

	list := lib.List(record.Note)
	list[0] = nil
	assert.NotNil(t, lib.Get(record.Note, "n"))
}

func TestLibrary_Concurrent(t *testing.T) {
	lib := NewLibrary()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("f%d", i)
			lib.Add(named(PersonKind, name))
			_ = lib.Get(record.Person, name)
			_ = lib.List(record.Person)
		}(i)
	}
	wg.Wait()
	assert.Len(t, lib.List(record.Person), 8)
}
