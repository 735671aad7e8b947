package filter

import "kinfilter/internal/core/apperror"

// mapGroup is what the optimizer learns about one filter node: its polarity,
// its operator, and the maps of its mapped rules.
type mapGroup struct {
	invert bool
	op     Op
	maps   []HandleSet
	// restricts is set when the node and all its ancestors are non-inverted
	// "and" filters of the root's kind, so the node's matches bound the root's.
	restricts bool
}

// walkFilters collects a mapGroup for every filter node reachable from f,
// following nested rules. A filter reached again while still on the current
// path is a cycle.
func walkFilters(f *Filter) ([]mapGroup, error) {
	w := walker{onPath: make(map[*Filter]bool), root: f.kind}
	if err := w.walk(f, true); err != nil {
		return nil, err
	}
	return w.groups, nil
}

type walker struct {
	root   *Descriptor
	onPath map[*Filter]bool
	groups []mapGroup
}

func (w *walker) walk(f *Filter, parentRestricts bool) error {
	if w.onPath[f] {
		return apperror.NewFilterCycle(f.Name)
	}
	w.onPath[f] = true
	defer delete(w.onPath, f)

	restricts := parentRestricts && f.LogicalOp == And && !f.Invert && sameKind(f.kind, w.root)

	var maps []HandleSet
	for _, item := range f.rules {
		switch r := item.(type) {
		case NestedRule:
			nested := r.FindFilter()
			if nested == nil {
				continue
			}
			if err := w.walk(nested, restricts); err != nil {
				return err
			}
		case MappedRule:
			if m := r.Map(); m != nil {
				maps = append(maps, m)
			}
		}
	}
	if len(maps) > 0 {
		w.groups = append(w.groups, mapGroup{invert: f.Invert, op: f.LogicalOp, maps: maps, restricts: restricts})
	}
	return nil
}

func sameKind(a, b *Descriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind
}

// candidates intersects the maps of every restricting group. nil means no
// restriction is known; an empty set means nothing can match.
func candidates(groups []mapGroup) HandleSet {
	var sets []HandleSet
	for _, g := range groups {
		if g.op == And && !g.invert && g.restricts {
			sets = append(sets, g.maps...)
		}
	}
	return intersectAll(sets)
}
