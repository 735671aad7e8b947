package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// IsEnclosedBy matches the places enclosed, directly or not, by a place.
// With the inclusive flag the place itself matches too.
type IsEnclosedBy struct {
	Prepared
	m filter.HandleSet
}

// NewIsEnclosedBy builds IsEnclosedBy from [place id, inclusive].
func NewIsEnclosedBy(args Args) (filter.Rule, error) {
	if len(args.Values) < 1 {
		return nil, apperror.NewInvalidRuleArgs("IsEnclosedBy", "a place ID is required")
	}
	r := &IsEnclosedBy{}
	p, err := newPrepared("IsEnclosedBy", Args{Values: args.Values, Kind: args.Kind}, r)
	if err != nil {
		return nil, err
	}
	r.Prepared = p
	return r, nil
}

func (r *IsEnclosedBy) prepare(ctx context.Context, db record.Database, _ filter.Progress) error {
	r.m = filter.NewHandleSet()
	root, err := db.FromGrampsID(ctx, record.Place, r.value(0))
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
	queue := []record.Handle{root.Handle}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		links, err := db.Backlinks(ctx, h, record.Place)
		if err != nil {
			return err
		}
		for _, link := range links {
			if seen.Contains(link.Handle) {
				continue
			}
			seen.Add(link.Handle)
			r.m.Add(link.Handle)
			queue = append(queue, link.Handle)
		}
	}
	return nil
}

func (r *IsEnclosedBy) reset() { r.m = nil }

func (r *IsEnclosedBy) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	return r.m.Contains(data.Handle()), nil
}

// Map returns the enclosed places while prepared.
func (r *IsEnclosedBy) Map() filter.HandleSet { return r.m }

// WithinArea matches places whose coordinates lie within radius degrees of a
// point, measured separately in latitude and longitude.
// Arguments: latitude, longitude, radius.
type WithinArea struct {
	Base
	lat, long, radius decimal.Decimal
}

// NewWithinArea builds WithinArea from [latitude, longitude, radius].
func NewWithinArea(args Args) (filter.Rule, error) {
	if len(args.Values) < 3 {
		return nil, apperror.NewInvalidRuleArgs("WithinArea", "latitude, longitude and radius are required")
	}
	b, err := newBase("WithinArea", Args{Values: args.Values, Kind: args.Kind})
	if err != nil {
		return nil, err
	}

	var nums [3]decimal.Decimal
	for i := range nums {
		nums[i], err = decimal.NewFromString(strings.TrimSpace(args.Values[i]))
		if err != nil {
			return nil, apperror.NewInvalidRuleArgs("WithinArea", fmt.Sprintf("not a number: %q", args.Values[i])).WithCause(err)
		}
	}
	if nums[2].IsNegative() {
		return nil, apperror.NewInvalidRuleArgs("WithinArea", "radius must not be negative")
	}
	return &WithinArea{Base: b, lat: nums[0], long: nums[1], radius: nums[2]}, nil
}

func (r *WithinArea) ApplyToOne(_ context.Context, _ record.Database, data record.Data) (bool, error) {
	lat, err := decimal.NewFromString(strings.TrimSpace(data.String("lat")))
	if err != nil {
		return false, nil
	}
	long, err := decimal.NewFromString(strings.TrimSpace(data.String("long")))
	if err != nil {
		return false, nil
	}
	return lat.Sub(r.lat).Abs().LessThanOrEqual(r.radius) &&
		long.Sub(r.long).Abs().LessThanOrEqual(r.radius), nil
}
