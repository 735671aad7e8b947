// Package filter implements the generic record filter: a named, invertible
// and/or/one combination of rules and nested filters, evaluated one record at a
// time or in batch over a record database.
package filter

import (
	"context"
	"errors"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/record"
)

// Op is the logical operator combining a filter's rules.
type Op string

const (
	And Op = "and" // every rule matches
	Or  Op = "or"  // at least one rule matches
	One Op = "one" // exactly one rule matches
)

// Ops lists the valid operators.
var Ops = []Op{And, Or, One}

// ParseOp validates an operator name.
func ParseOp(s string) (Op, error) {
	op := Op(s)
	if !op.Valid() {
		return "", apperror.NewInvalidOperator(s)
	}
	return op, nil
}

// Valid reports whether op is and, or or one.
func (op Op) Valid() bool {
	return op == And || op == Or || op == One
}

// Filter is a logical combination of rules over records of one kind.
//
// LogicalOp is exported and may be assigned directly; evaluation re-validates it.
// A Filter owns its rule slice. Rules may be shared between filters.
type Filter struct {
	Name      string
	Comment   string
	LogicalOp Op
	Invert    bool
	// NeedParam is the number of parameters the filter expects from its caller.
	// Informational only.
	NeedParam int

	kind     *Descriptor
	rules    []Rule
	deferred *DeferredName
}

// ErrUnbound is returned by batch runs of a filter created without a record kind.
var ErrUnbound = errors.New("filter is not bound to a record kind")

// New creates an empty "and" filter bound to a record kind.
// kind must be non-nil for the filter to be applied or stored in a Library.
func New(kind *Descriptor) *Filter {
	return &Filter{
		LogicalOp: And,
		kind:      kind,
	}
}

// Clone copies the scalar fields and the rule list. The rules themselves are shared.
func (f *Filter) Clone() *Filter {
	c := *f
	c.rules = append([]Rule(nil), f.rules...)
	if f.deferred != nil {
		d := *f.deferred
		c.deferred = &d
	}
	return &c
}

// Kind returns the descriptor the filter is bound to.
func (f *Filter) Kind() *Descriptor {
	return f.kind
}

// SetLogicalOp sets the operator, rejecting anything but and/or/one.
func (f *Filter) SetLogicalOp(op Op) error {
	if !op.Valid() {
		return apperror.NewInvalidOperator(string(op))
	}
	f.LogicalOp = op
	return nil
}

// SetInvert sets whether the combined result is negated.
func (f *Filter) SetInvert(v bool) { f.Invert = v }

// SetName sets the filter's name.
func (f *Filter) SetName(name string) { f.Name = name }

// SetComment sets the free-text comment.
func (f *Filter) SetComment(c string) { f.Comment = c }

// AddRule appends r to the rule list.
func (f *Filter) AddRule(r Rule) { f.rules = append(f.rules, r) }

// SetRules replaces the rule list.
func (f *Filter) SetRules(rules []Rule) { f.rules = rules }

// Rules returns the filter's rule list.
func (f *Filter) Rules() []Rule {
	return f.rules
}

// DeleteRule removes the first occurrence of r. It reports whether r was found.
func (f *Filter) DeleteRule(r Rule) bool {
	for i, item := range f.rules {
		if item == r {
			f.rules = append(f.rules[:i:i], f.rules[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty holds when the filter has no rules, or a single empty rule and is not inverted.
func (f *Filter) IsEmpty() bool {
	if len(f.rules) == 0 {
		return true
	}
	return len(f.rules) == 1 && f.rules[0].IsEmpty() && !f.Invert
}

// Match reports whether data passes the filter.
func (f *Filter) Match(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	return f.ApplyToOne(ctx, db, data)
}

// ApplyToOne evaluates the combination of rules against one record, then applies Invert.
func (f *Filter) ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error) {
	test, err := f.tester()
	if err != nil {
		return false, err
	}
	res, err := test(ctx, db, data, f.rules)
	if err != nil {
		return false, err
	}
	return res != f.Invert, nil
}

type tester func(ctx context.Context, db record.Database, data record.Data, rules []Rule) (bool, error)

func (f *Filter) tester() (tester, error) {
	switch f.LogicalOp {
	case And:
		return andTest, nil
	case Or:
		return orTest, nil
	case One:
		return oneTest, nil
	}
	return nil, apperror.NewInvalidOperator(string(f.LogicalOp))
}

func andTest(ctx context.Context, db record.Database, data record.Data, rules []Rule) (bool, error) {
	for _, r := range rules {
		ok, err := r.ApplyToOne(ctx, db, data)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func orTest(ctx context.Context, db record.Database, data record.Data, rules []Rule) (bool, error) {
	for _, r := range rules {
		ok, err := r.ApplyToOne(ctx, db, data)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func oneTest(ctx context.Context, db record.Database, data record.Data, rules []Rule) (bool, error) {
	found := false
	for _, r := range rules {
		ok, err := r.ApplyToOne(ctx, db, data)
		if err != nil {
			return false, err
		}
		if ok {
			if found {
				return false, nil
			}
			found = true
		}
	}
	return found, nil
}

// A Filter can stand in a rule list as a nested filter.

// RequestPrepare prepares every rule of the filter.
func (f *Filter) RequestPrepare(ctx context.Context, db record.Database, progress Progress) error {
	for i, r := range f.rules {
		if err := r.RequestPrepare(ctx, db, progress); err != nil {
			for _, done := range f.rules[:i] {
				done.RequestReset()
			}
			return err
		}
	}
	return nil
}

// RequestReset resets every rule of the filter.
func (f *Filter) RequestReset() {
	for _, r := range f.rules {
		r.RequestReset()
	}
}

// FindFilter returns f itself.
func (f *Filter) FindFilter() *Filter {
	return f
}

var _ NestedRule = (*Filter)(nil)
