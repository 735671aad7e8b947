package filter

import (
	"slices"

	"kinfilter/internal/domain/record"
)

// HandleSet is a set of record handles. Rules that can enumerate their matches up
// front expose one as their map.
type HandleSet map[record.Handle]struct{}

// NewHandleSet builds a set from handles.
func NewHandleSet(handles ...record.Handle) HandleSet {
	s := make(HandleSet, len(handles))
	for _, h := range handles {
		s[h] = struct{}{}
	}
	return s
}

// Add inserts h.
func (s HandleSet) Add(h record.Handle) {
	s[h] = struct{}{}
}

// Contains reports whether h is in the set.
func (s HandleSet) Contains(h record.Handle) bool {
	_, ok := s[h]
	return ok
}

// Len returns the number of handles.
func (s HandleSet) Len() int {
	return len(s)
}

// Intersect returns a new set with the handles present in both s and other.
func (s HandleSet) Intersect(other HandleSet) HandleSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(HandleSet, len(small))
	for h := range small {
		if large.Contains(h) {
			out[h] = struct{}{}
		}
	}
	return out
}

// Sorted returns the handles in ascending order.
func (s HandleSet) Sorted() []record.Handle {
	out := make([]record.Handle, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Clone returns a copy of the set.
func (s HandleSet) Clone() HandleSet {
	out := make(HandleSet, len(s))
	for h := range s {
		out[h] = struct{}{}
	}
	return out
}

// intersectAll intersects sets; nil means "no sets given".
func intersectAll(sets []HandleSet) HandleSet {
	if len(sets) == 0 {
		return nil
	}
	result := sets[0].Clone()
	for _, s := range sets[1:] {
		result = result.Intersect(s)
	}
	return result
}
