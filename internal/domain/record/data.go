package record

import (
	"encoding/json"
	"strconv"
)

// Handle is the opaque identifier of a record.
type Handle string

// Data is a record as stored: a decoded JSON document.
// Rules read it through the accessors below and never modify it.
type Data map[string]any

// Handle returns the record's handle.
func (d Data) Handle() Handle {
	return Handle(d.String("handle"))
}

// GrampsID returns the user-visible identifier (I0001, F0002, ...).
func (d Data) GrampsID() string {
	return d.String("gramps_id")
}

// Class returns the "_class" tag of the document.
func (d Data) Class() string {
	return d.String("_class")
}

// String returns the value at key when it is a string.
func (d Data) String(key string) string {
	if s, ok := d[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the value at key as an int. JSON numbers decode as float64,
// Postgres jsonb may hand them back as json.Number.
func (d Data) Int(key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// Bool returns the value at key when it is a bool.
func (d Data) Bool(key string) bool {
	b, _ := d[key].(bool)
	return b
}

// Map returns a nested document.
func (d Data) Map(key string) Data {
	return asData(d[key])
}

// List returns a nested list of documents. Non-document entries are skipped.
func (d Data) List(key string) []Data {
	raw, ok := d[key].([]any)
	if !ok {
		if typed, ok := d[key].([]Data); ok {
			return typed
		}
		return nil
	}
	out := make([]Data, 0, len(raw))
	for _, item := range raw {
		if m := asData(item); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Strings returns a nested list of strings (tag_list, ...).
func (d Data) Strings(key string) []string {
	switch v := d[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Refs returns the "ref" handles of a reference list (child_ref_list, event_ref_list, ...).
func (d Data) Refs(key string) []Handle {
	items := d.List(key)
	out := make([]Handle, 0, len(items))
	for _, item := range items {
		if ref := item.String("ref"); ref != "" {
			out = append(out, Handle(ref))
		}
	}
	return out
}

// Handles returns a plain list of handles (family_list, parent_family_list, ...).
func (d Data) Handles(key string) []Handle {
	strs := d.Strings(key)
	out := make([]Handle, len(strs))
	for i, s := range strs {
		out[i] = Handle(s)
	}
	return out
}

func asData(v any) Data {
	switch m := v.(type) {
	case Data:
		return m
	case map[string]any:
		return Data(m)
	}
	return nil
}

// Decode parses a JSON document into Data.
func Decode(raw []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// New returns the default instance of a kind: an empty document tagged with its class.
func New(kind Kind) Data {
	d := Data{
		"_class":    string(kind),
		"handle":    "",
		"gramps_id": "",
		"tag_list":  []any{},
		"change":    0,
		"private":   false,
	}
	switch kind {
	case Person:
		d["gender"] = GenderUnknown
		d["primary_name"] = map[string]any{"first_name": "", "surname_list": []any{}}
		d["event_ref_list"] = []any{}
		d["family_list"] = []any{}
		d["parent_family_list"] = []any{}
	case Family:
		d["father_handle"] = nil
		d["mother_handle"] = nil
		d["child_ref_list"] = []any{}
		d["event_ref_list"] = []any{}
	case Event:
		d["type"] = map[string]any{"string": ""}
		d["description"] = ""
		d["place"] = ""
	case Place:
		d["name"] = map[string]any{"value": ""}
		d["placeref_list"] = []any{}
		d["lat"] = ""
		d["long"] = ""
	case Citation:
		d["source_handle"] = ""
		d["page"] = ""
	case Source:
		d["title"] = ""
	case Note:
		d["text"] = map[string]any{"string": ""}
	case Media:
		d["path"] = ""
		d["desc"] = ""
	case Repository:
		d["name"] = ""
	}
	return d
}

// Person gender values as stored in "gender".
const (
	GenderFemale  = 0
	GenderMale    = 1
	GenderUnknown = 2
)
