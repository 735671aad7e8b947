package rules

import (
	"context"

	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// IsMale matches men.
type IsMale struct {
	Base
}

// NewIsMale builds IsMale. It takes no arguments.
func NewIsMale(args Args) (filter.Rule, error) {
	b, err := newBase("IsMale", args)
	if err != nil {
		return nil, err
	}
	return &IsMale{Base: b}, nil
}

func (r *IsMale) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	return data.Int("gender") == record.GenderMale, nil
}

// IsFemale matches women.
type IsFemale struct {
	Base
}

// NewIsFemale builds IsFemale. It takes no arguments.
func NewIsFemale(args Args) (filter.Rule, error) {
	b, err := newBase("IsFemale", args)
	if err != nil {
		return nil, err
	}
	return &IsFemale{Base: b}, nil
}

func (r *IsFemale) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	return data.Int("gender") == record.GenderFemale, nil
}

// HasNameOf matches people with a name whose given name and surname contain
// the first and second argument. Empty arguments are not checked. The primary
// name and every alternate name are tried.
type HasNameOf struct {
	Base
}

// NewHasNameOf builds HasNameOf from [given name, surname].
func NewHasNameOf(args Args) (filter.Rule, error) {
	b, err := newBase("HasNameOf", args)
	if err != nil {
		return nil, err
	}
	return &HasNameOf{Base: b}, nil
}

func (r *HasNameOf) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	if r.value(0) == "" && r.value(1) == "" {
		return false, nil
	}
	names := append([]record.Data{data.Map("primary_name")}, data.List("alternate_names")...)
	for _, name := range names {
		if name != nil && r.matchName(name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *HasNameOf) matchName(name record.Data) bool {
	if !r.matchSubstring(0, name.String("first_name")) {
		return false
	}
	if r.value(1) == "" {
		return true
	}
	for _, s := range name.List("surname_list") {
		if r.matchSubstring(1, s.String("surname")) {
			return true
		}
	}
	return false
}
