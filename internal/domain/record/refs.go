package record

// Reference-bearing fields of the stored documents.
var (
	refListKeys    = []string{"event_ref_list", "child_ref_list", "placeref_list", "reporef_list", "media_list", "person_ref_list"}
	handleKeys     = []string{"father_handle", "mother_handle", "source_handle", "place"}
	handleListKeys = []string{"family_list", "parent_family_list", "citation_list", "note_list", "tag_list"}
)

// ReferencedHandles returns the handles a document points at, without duplicates,
// in field order. Backlink indexes are built from it.
func ReferencedHandles(d Data) []Handle {
	seen := make(map[Handle]struct{})
	var out []Handle
	add := func(h Handle) {
		if h == "" {
			return
		}
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}

	for _, key := range handleKeys {
		add(Handle(d.String(key)))
	}
	for _, key := range refListKeys {
		for _, h := range d.Refs(key) {
			add(h)
		}
	}
	for _, key := range handleListKeys {
		for _, h := range d.Handles(key) {
			add(h)
		}
	}
	return out
}

// ParentHandle returns the handle a hierarchical record hangs under: the first
// enclosing place of a place, the source of a citation. Empty for roots and flat kinds.
func ParentHandle(kind Kind, d Data) Handle {
	switch kind {
	case Place:
		if refs := d.Refs("placeref_list"); len(refs) > 0 {
			return refs[0]
		}
	case Citation:
		return Handle(d.String("source_handle"))
	}
	return ""
}
