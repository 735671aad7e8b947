package memdb

import (
	"kinfilter/internal/domain/record"
)

// Demo returns a small three-generation Smith family with places, sources and
// citations. Handles are the lowercased Gramps IDs so tests can name them.
//
//	John Smith (I0001) + Mary Jones (I0002)        F0001, married in Boston
//	├── Robert Smith (I0003) + Linda Brown (I0005) F0002, married in Springfield
//	│   └── Tom Smith (I0006)
//	└── Anna Smith (I0004)
func Demo() *DB {
	db := New()
	todo := db.AddTag("ToDo")

	// places: USA > Massachusetts > Boston, USA > Illinois > Springfield
	db.MustPut(record.Place, place("p0001", "USA", "", "", ""))
	db.MustPut(record.Place, place("p0002", "Massachusetts", "p0001", "", ""))
	db.MustPut(record.Place, place("p0003", "Boston", "p0002", "42.3601", "-71.0589"))
	db.MustPut(record.Place, place("p0004", "Springfield", "p0005", "39.7817", "-89.6501"))
	db.MustPut(record.Place, place("p0005", "Illinois", "p0001", "", ""))

	db.MustPut(record.Event, event("e0001", "Birth", "Birth of John Smith", "p0003"))
	db.MustPut(record.Event, event("e0002", "Marriage", "Marriage of John Smith and Mary Jones", "p0003"))
	db.MustPut(record.Event, event("e0003", "Birth", "Birth of Robert Smith", "p0003"))
	db.MustPut(record.Event, event("e0004", "Marriage", "Marriage of Robert Smith and Linda Brown", "p0004"))
	db.MustPut(record.Event, event("e0005", "Death", "Death of John Smith", "p0004"))
	db.MustPut(record.Event, event("e0006", "Birth", "Birth of Tom Smith", "p0004"))

	db.MustPut(record.Person, person("i0001", "John", "Smith", record.GenderMale, []string{"e0001", "e0005"}, []string{"f0001"}, nil))
	db.MustPut(record.Person, person("i0002", "Mary", "Jones", record.GenderFemale, nil, []string{"f0001"}, nil))
	robert := person("i0003", "Robert", "Smith", record.GenderMale, []string{"e0003"}, []string{"f0002"}, []string{"f0001"})
	robert["tag_list"] = []any{string(todo)}
	db.MustPut(record.Person, robert)
	db.MustPut(record.Person, person("i0004", "Anna", "Smith", record.GenderFemale, nil, nil, []string{"f0001"}))
	db.MustPut(record.Person, person("i0005", "Linda", "Brown", record.GenderFemale, nil, []string{"f0002"}, nil))
	db.MustPut(record.Person, person("i0006", "Tom", "Smith", record.GenderMale, []string{"e0006"}, nil, []string{"f0002"}))

	db.MustPut(record.Family, family("f0001", "i0001", "i0002", []string{"i0003", "i0004"}, []string{"e0002"}))
	db.MustPut(record.Family, family("f0002", "i0003", "i0005", []string{"i0006"}, []string{"e0004"}))

	db.MustPut(record.Repository, record.Data{"handle": "r0001", "gramps_id": "R0001", "name": "Boston Public Library"})
	db.MustPut(record.Source, record.Data{"handle": "s0001", "gramps_id": "S0001", "title": "Parish Register",
		"reporef_list": []any{map[string]any{"ref": "r0001"}}})
	db.MustPut(record.Source, record.Data{"handle": "s0002", "gramps_id": "S0002", "title": "Census 1900"})
	db.MustPut(record.Citation, record.Data{"handle": "c0001", "gramps_id": "C0001", "source_handle": "s0002", "page": "p. 12"})
	db.MustPut(record.Citation, record.Data{"handle": "c0002", "gramps_id": "C0002", "source_handle": "s0001", "page": "folio 3"})
	db.MustPut(record.Citation, record.Data{"handle": "c0003", "gramps_id": "C0003", "source_handle": "s0002", "page": "p. 40"})
	db.MustPut(record.Note, record.Data{"handle": "n0001", "gramps_id": "N0001", "text": map[string]any{"string": "Check the 1910 census."}})
	db.MustPut(record.Media, record.Data{"handle": "o0001", "gramps_id": "O0001", "path": "photos/smith.jpg", "desc": "Smith family"})
	return db
}

func person(h, first, surname string, gender int, events, families, parents []string) record.Data {
	return record.Data{
		"handle":    h,
		"gramps_id": upper(h),
		"gender":    gender,
		"primary_name": map[string]any{
			"first_name":   first,
			"surname_list": []any{map[string]any{"surname": surname, "primary": true}},
		},
		"event_ref_list":     refs(events),
		"family_list":        strs(families),
		"parent_family_list": strs(parents),
		"tag_list":           []any{},
	}
}

func family(h, father, mother string, children, events []string) record.Data {
	return record.Data{
		"handle":         h,
		"gramps_id":      upper(h),
		"father_handle":  father,
		"mother_handle":  mother,
		"child_ref_list": refs(children),
		"event_ref_list": refs(events),
		"type":           map[string]any{"string": "Married"},
	}
}

func event(h, typ, desc, place string) record.Data {
	return record.Data{
		"handle":      h,
		"gramps_id":   upper(h),
		"type":        map[string]any{"string": typ},
		"description": desc,
		"place":       place,
	}
}

func place(h, name, enclosedBy, lat, long string) record.Data {
	d := record.Data{
		"handle":        h,
		"gramps_id":     upper(h),
		"name":          map[string]any{"value": name},
		"lat":           lat,
		"long":          long,
		"placeref_list": []any{},
	}
	if enclosedBy != "" {
		d["placeref_list"] = refs([]string{enclosedBy})
	}
	return d
}

func refs(handles []string) []any {
	out := make([]any, len(handles))
	for i, h := range handles {
		out[i] = map[string]any{"ref": h}
	}
	return out
}

func strs(handles []string) []any {
	out := make([]any, len(handles))
	for i, h := range handles {
		out[i] = h
	}
	return out
}

func upper(h string) string {
	b := []byte(h)
	b[0] -= 'a' - 'A'
	return string(b)
}
