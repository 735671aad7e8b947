package rules

import (
	"context"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// HasType matches events of a type ("Birth", "Marriage", ...).
type HasType struct {
	Base
}

// NewHasType builds HasType from [type].
func NewHasType(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("HasType", "an event type is required")
	}
	b, err := newBase("HasType", args)
	if err != nil {
		return nil, err
	}
	return &HasType{Base: b}, nil
}

func (r *HasType) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	if r.value(0) == "" {
		return false, nil
	}
	return r.matchType(0, eventType(data)), nil
}

// MatchesPersonFilter matches the events of people matched by a person filter.
// Arguments: the person filter name, and a flag to also match family events
// of families where a matched person is father or mother.
type MatchesPersonFilter struct {
	Prepared
	ref nestedRef
}

// NewMatchesPersonFilter builds MatchesPersonFilter from [filter name, include family events].
func NewMatchesPersonFilter(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("MatchesPersonFilter", "a person filter name is required")
	}
	r := &MatchesPersonFilter{ref: nestedRef{lib: args.Library, kind: record.Person, name: args.Values[0]}}
	p, err := newPrepared("MatchesPersonFilter", Args{Values: args.Values, Kind: args.Kind}, r)
	if err != nil {
		return nil, err
	}
	r.Prepared = p
	return r, nil
}

// FindFilter resolves the person filter, or returns nil.
func (r *MatchesPersonFilter) FindFilter() *filter.Filter { return r.ref.find() }

func (r *MatchesPersonFilter) prepare(ctx context.Context, db record.Database, progress filter.Progress) error {
	return r.ref.prepare(ctx, db, progress)
}

func (r *MatchesPersonFilter) reset() { r.ref.reset() }

func (r *MatchesPersonFilter) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	f := r.FindFilter()
	if f == nil {
		return false, nil
	}

	people, err := db.Backlinks(ctx, data.Handle(), record.Person)
	if err != nil {
		return false, err
	}
	for _, link := range people {
		ok, err := r.matchPerson(ctx, db, f, link.Handle)
		if err != nil || ok {
			return ok, err
		}
	}

	if !r.flag(1) {
		return false, nil
	}
	families, err := db.Backlinks(ctx, data.Handle(), record.Family)
	if err != nil {
		return false, err
	}
	for _, link := range families {
		fam, err := db.RawData(ctx, record.Family, link.Handle)
		if apperror.IsNotFound(err) {
			continue
		}
		if err != nil {
			return false, err
		}
		for _, key := range []string{"father_handle", "mother_handle"} {
			h := record.Handle(fam.String(key))
			if h == "" {
				continue
			}
			ok, err := r.matchPerson(ctx, db, f, h)
			if err != nil || ok {
				return ok, err
			}
		}
	}
	return false, nil
}

func (r *MatchesPersonFilter) matchPerson(ctx context.Context, db record.Database, f *filter.Filter, h record.Handle) (bool, error) {
	person, err := db.RawData(ctx, record.Person, h)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.ApplyToOne(ctx, db, person)
}
