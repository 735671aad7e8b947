package filter

import (
	"sync"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/record"
)

// Library holds named custom filters per record kind. Nested-filter rules
// resolve their target by name through it at evaluation time.
type Library struct {
	mu      sync.RWMutex
	filters map[record.Kind][]*Filter
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{filters: make(map[record.Kind][]*Filter)}
}

// Add stores f under its kind, replacing a filter with the same name.
// f must be bound to a kind; see New.
func (l *Library) Add(f *Filter) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kind := f.kind.Kind
	for i, existing := range l.filters[kind] {
		if existing.Name == f.Name {
			l.filters[kind][i] = f
			return
		}
	}
	l.filters[kind] = append(l.filters[kind], f)
}

// Get returns the filter named name of kind, or nil.
func (l *Library) Get(kind record.Kind, name string) *Filter {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, f := range l.filters[kind] {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Lookup is Get with a FILTER_NOT_FOUND error for missing filters.
func (l *Library) Lookup(kind record.Kind, name string) (*Filter, error) {
	if f := l.Get(kind, name); f != nil {
		return f, nil
	}
	return nil, apperror.NewFilterNotFound(string(kind), name)
}

// Remove deletes the filter named name of kind and reports whether it existed.
func (l *Library) Remove(kind record.Kind, name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.filters[kind]
	for i, f := range list {
		if f.Name == name {
			l.filters[kind] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the filters of kind in insertion order.
func (l *Library) List(kind record.Kind) []*Filter {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]*Filter(nil), l.filters[kind]...)
}

// Kinds returns the kinds that have at least one filter, in canonical order.
func (l *Library) Kinds() []record.Kind {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []record.Kind
	for _, k := range record.Kinds {
		if len(l.filters[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// Replace swaps the whole content of the library for filters in one step.
// Readers see either the old or the new set, never a mix.
func (l *Library) Replace(filters ...*Filter) {
	next := make(map[record.Kind][]*Filter)
	for _, f := range filters {
		kind := f.kind.Kind
		replaced := false
		for i, existing := range next[kind] {
			if existing.Name == f.Name {
				next[kind][i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			next[kind] = append(next[kind], f)
		}
	}

	l.mu.Lock()
	l.filters = next
	l.mu.Unlock()
}
