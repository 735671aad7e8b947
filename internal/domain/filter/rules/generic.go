package rules

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
	"kinfilter/pkg/logger"
)

// Everything matches every record. It is the empty rule.
type Everything struct {
	Base
}

// NewEverything builds the rule matching every record.
func NewEverything(args Args) (filter.Rule, error) {
	b, err := newBase("Everything", args)
	if err != nil {
		return nil, err
	}
	return &Everything{Base: b}, nil
}

func (r *Everything) ApplyToOne(context.Context, record.Database, record.Data) (bool, error) {
	return true, nil
}

// IsEmpty reports true: Everything does not restrict a filter.
func (r *Everything) IsEmpty() bool { return true }

// HasIDOf matches the record with a given Gramps ID.
// Once prepared its map holds that record's handle.
type HasIDOf struct {
	Prepared
	m filter.HandleSet
}

// NewHasIDOf builds HasIDOf from [gramps id].
func NewHasIDOf(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("HasIdOf", "an ID is required")
	}
	r := &HasIDOf{}
	p, err := newPrepared("HasIdOf", Args{Values: args.Values, Kind: args.Kind}, r)
	if err != nil {
		return nil, err
	}
	r.Prepared = p
	return r, nil
}

func (r *HasIDOf) prepare(ctx context.Context, db record.Database, _ filter.Progress) error {
	r.m = filter.NewHandleSet()
	rec, err := db.FromGrampsID(ctx, r.kind, r.value(0))
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	r.m.Add(rec.Handle)
	return nil
}

func (r *HasIDOf) reset() { r.m = nil }

func (r *HasIDOf) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	if r.m != nil {
		return r.m.Contains(data.Handle()), nil
	}
	return data.GrampsID() == r.value(0), nil
}

// Map returns the matching handle set while prepared.
func (r *HasIDOf) Map() filter.HandleSet { return r.m }

// RegExpIDOf matches records whose Gramps ID matches a regular expression.
type RegExpIDOf struct {
	Base
}

// NewRegExpIDOf builds RegExpIDOf from [pattern].
func NewRegExpIDOf(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("RegExpIdOf", "a pattern is required")
	}
	args.UseRegex = true
	b, err := newBase("RegExpIdOf", args)
	if err != nil {
		return nil, err
	}
	return &RegExpIDOf{Base: b}, nil
}

func (r *RegExpIDOf) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	return r.matchSubstring(0, data.GrampsID()), nil
}

// HasTag matches records carrying a tag, by tag name.
type HasTag struct {
	Prepared
	tag record.Handle
}

// NewHasTag builds HasTag from [tag name].
func NewHasTag(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("HasTag", "a tag name is required")
	}
	r := &HasTag{}
	p, err := newPrepared("HasTag", args, r)
	if err != nil {
		return nil, err
	}
	r.Prepared = p
	return r, nil
}

func (r *HasTag) prepare(ctx context.Context, db record.Database, _ filter.Progress) error {
	h, err := db.TagHandle(ctx, r.value(0))
	if apperror.IsNotFound(err) {
		r.tag = ""
		return nil
	}
	r.tag = h
	return err
}

func (r *HasTag) reset() { r.tag = "" }

func (r *HasTag) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	tag := r.tag
	if !r.IsPrepared() {
		h, err := db.TagHandle(ctx, r.value(0))
		if apperror.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		tag = h
	}
	if tag == "" {
		return false, nil
	}
	return slices.Contains(data.Handles("tag_list"), tag), nil
}

// HasField matches records whose field at a dotted path ("primary_name.first_name")
// contains a text, or matches a regular expression. List fields match when any
// element does.
type HasField struct {
	Base
	path []string
}

// NewHasField builds HasField from [dotted path, value].
func NewHasField(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 || args.Values[0] == "" {
		return nil, apperror.NewInvalidRuleArgs("HasField", "a field path is required")
	}
	b, err := newBase("HasField", args)
	if err != nil {
		return nil, err
	}
	return &HasField{Base: b, path: strings.Split(b.value(0), ".")}, nil
}

func (r *HasField) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	for _, text := range fieldTexts(data, r.path) {
		if r.matchSubstring(1, text) {
			return true, nil
		}
	}
	return false, nil
}

// fieldTexts renders the values found at path, descending into lists.
func fieldTexts(v any, path []string) []string {
	switch node := v.(type) {
	case record.Data:
		if len(path) == 0 {
			return nil
		}
		return fieldTexts(node[path[0]], path[1:])
	case map[string]any:
		return fieldTexts(record.Data(node), path)
	case []any:
		var out []string
		for _, item := range node {
			out = append(out, fieldTexts(item, path)...)
		}
		return out
	case nil:
		return nil
	}
	if len(path) > 0 {
		return nil
	}
	if s, ok := v.(string); ok {
		return []string{s}
	}
	return []string{fmt.Sprint(v)}
}

// nestedRef resolves a custom filter by name through the library and keeps it
// prepared for the duration of a batch run.
type nestedRef struct {
	lib    *filter.Library
	kind   record.Kind
	name   string
	target *filter.Filter
}

func (n *nestedRef) find() *filter.Filter {
	if n.target != nil {
		return n.target
	}
	if n.lib == nil {
		return nil
	}
	return n.lib.Get(n.kind, n.name)
}

func (n *nestedRef) prepare(ctx context.Context, db record.Database, progress filter.Progress) error {
	f := n.find()
	if f == nil {
		logger.Warn(ctx, "nested filter not found", "namespace", n.kind, "filter", n.name)
		return nil
	}
	if err := f.RequestPrepare(ctx, db, progress); err != nil {
		return err
	}
	n.target = f
	return nil
}

func (n *nestedRef) reset() {
	if n.target != nil {
		n.target.RequestReset()
		n.target = nil
	}
}

// MatchesFilter matches records matched by another custom filter of the same
// namespace, looked up by name in the library.
type MatchesFilter struct {
	Prepared
	ref nestedRef
}

// NewMatchesFilter builds MatchesFilter from [filter name].
func NewMatchesFilter(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("MatchesFilter", "a filter name is required")
	}
	r := &MatchesFilter{ref: nestedRef{lib: args.Library, kind: args.Kind, name: args.Values[0]}}
	p, err := newPrepared("MatchesFilter", Args{Values: args.Values, Kind: args.Kind}, r)
	if err != nil {
		return nil, err
	}
	r.Prepared = p
	return r, nil
}

// FindFilter resolves the referenced filter, or returns nil.
func (r *MatchesFilter) FindFilter() *filter.Filter { return r.ref.find() }

func (r *MatchesFilter) prepare(ctx context.Context, db record.Database, progress filter.Progress) error {
	return r.ref.prepare(ctx, db, progress)
}

func (r *MatchesFilter) reset() { r.ref.reset() }

func (r *MatchesFilter) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	f := r.FindFilter()
	if f == nil {
		return false, nil
	}
	return f.ApplyToOne(ctx, db, data)
}
