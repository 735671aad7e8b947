package rules

import (
	"context"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// IsDescendantOf matches the families descending from a family: the families
// of its children, of their children, and so on. With the inclusive flag the
// family itself matches too.
type IsDescendantOf struct {
	Prepared
	m filter.HandleSet
}

// NewIsDescendantOf builds IsDescendantOf from [family id, inclusive].
func NewIsDescendantOf(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("IsDescendantOf", "a family ID is required")
	}
	r := &IsDescendantOf{}
	p, err := newPrepared("IsDescendantOf", Args{Values: args.Values, Kind: args.Kind}, r)
	if err != nil {
		return nil, err
	}
	r.Prepared = p
	return r, nil
}

func (r *IsDescendantOf) prepare(ctx context.Context, db record.Database, _ filter.Progress) error {
	r.m = filter.NewHandleSet()
	root, err := db.FromGrampsID(ctx, record.Family, r.value(0))
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	seen := filter.NewHandleSet(root.Handle)
	if r.flag(1) {
		r.m.Add(root.Handle)
	}
	queue := []record.Data{root.Data}
	for len(queue) > 0 {
		fam := queue[0]
		queue = queue[1:]
		for _, child := range fam.Refs("child_ref_list") {
			person, err := db.RawData(ctx, record.Person, child)
			if apperror.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			for _, h := range person.Handles("family_list") {
				if seen.Contains(h) {
					continue
				}
				seen.Add(h)
				data, err := db.RawData(ctx, record.Family, h)
				if apperror.IsNotFound(err) {
					continue
				}
				if err != nil {
					return err
				}
				r.m.Add(h)
				queue = append(queue, data)
			}
		}
	}
	return nil
}

func (r *IsDescendantOf) reset() { r.m = nil }

func (r *IsDescendantOf) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	return r.m.Contains(data.Handle()), nil
}

// Map returns the descendant families while prepared.
func (r *IsDescendantOf) Map() filter.HandleSet { return r.m }

// HasEvent matches families with an event of a type, optionally at a place
// and with a description. Arguments: type, place, description.
type HasEvent struct {
	Base
}

// NewHasEvent builds HasEvent from [type, place, description].
func NewHasEvent(args Args) (filter.Rule, error) {
	b, err := newBase("HasEvent", args)
	if err != nil {
		return nil, err
	}
	return &HasEvent{Base: b}, nil
}

func (r *HasEvent) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	for _, h := range data.Refs("event_ref_list") {
		event, err := db.RawData(ctx, record.Event, h)
		if apperror.IsNotFound(err) {
			continue
		}
		if err != nil {
			return false, err
		}
		ok, err := r.matchEvent(ctx, db, event)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (r *HasEvent) matchEvent(ctx context.Context, db record.Database, event record.Data) (bool, error) {
	if !r.matchType(0, eventType(event)) {
		return false, nil
	}
	if !r.matchSubstring(2, event.String("description")) {
		return false, nil
	}
	if r.value(1) == "" {
		return true, nil
	}
	placeHandle := record.Handle(event.String("place"))
	if placeHandle == "" {
		return false, nil
	}
	place, err := db.RawData(ctx, record.Place, placeHandle)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.matchSubstring(1, placeName(place)), nil
}

func eventType(event record.Data) string {
	return event.Map("type").String("string")
}

func placeName(place record.Data) string {
	return place.Map("name").String("value")
}

type member int

const (
	father member = iota
	mother
	child
)

// FamilyMember applies a person rule to the father, the mother or the
// children of a family. The family matches when the person rule matches the
// father (mother), or any child.
type FamilyMember struct {
	Base
	member member
	person filter.Rule
}

func newFamilyMember(class string, m member, args Args) (filter.Rule, error) {
	b, err := newBase(class, args)
	if err != nil {
		return nil, err
	}
	person, err := NewHasNameOf(Args{Values: args.Values, UseRegex: args.UseRegex, Kind: record.Person})
	if err != nil {
		return nil, err
	}
	return &FamilyMember{Base: b, member: m, person: person}, nil
}

// NewFatherHasNameOf applies HasNameOf to the family's father.
func NewFatherHasNameOf(args Args) (filter.Rule, error) {
	return newFamilyMember("FatherHasNameOf", father, args)
}

// NewMotherHasNameOf applies HasNameOf to the family's mother.
func NewMotherHasNameOf(args Args) (filter.Rule, error) {
	return newFamilyMember("MotherHasNameOf", mother, args)
}

// NewChildHasNameOf applies HasNameOf to each child of the family.
func NewChildHasNameOf(args Args) (filter.Rule, error) {
	return newFamilyMember("ChildHasNameOf", child, args)
}

// RequestPrepare prepares the wrapped person rule.
func (r *FamilyMember) RequestPrepare(ctx context.Context, db record.Database, progress filter.Progress) error {
	return r.person.RequestPrepare(ctx, db, progress)
}

// RequestReset resets the wrapped person rule.
func (r *FamilyMember) RequestReset() { r.person.RequestReset() }

func (r *FamilyMember) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	var handles []record.Handle
	switch r.member {
	case father:
		handles = []record.Handle{record.Handle(data.String("father_handle"))}
	case mother:
		handles = []record.Handle{record.Handle(data.String("mother_handle"))}
	case child:
		handles = data.Refs("child_ref_list")
	}

	for _, h := range handles {
		if h == "" {
			continue
		}
		person, err := db.RawData(ctx, record.Person, h)
		if apperror.IsNotFound(err) {
			continue
		}
		if err != nil {
			return false, err
		}
		ok, err := r.person.ApplyToOne(ctx, db, person)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
