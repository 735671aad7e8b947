// Package rules implements the concrete rule classes a filter is built from:
// generic rules usable on any record kind and kind-specific ones for people,
// families, events and places.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"kinfilter/internal/core/apperror"
	"kinfilter/internal/domain/filter"
	"kinfilter/internal/domain/record"
)

// Base carries the arguments every rule is built from: its class name, its
// positional values and whether text values are regular expressions.
// It supplies a no-op prepare/reset lifecycle.
type Base struct {
	class    string
	kind     record.Kind
	values   []string
	useRegex bool
	regex    []*regexp.Regexp
}

func newBase(class string, args Args) (Base, error) {
	b := Base{
		class:    class,
		kind:     args.Kind,
		values:   slices.Clone(args.Values),
		useRegex: args.UseRegex,
	}
	if b.useRegex {
		b.regex = make([]*regexp.Regexp, len(b.values))
		for i, v := range b.values {
			re, err := regexp.Compile("(?i)" + v)
			if err != nil {
				return Base{}, apperror.NewInvalidRuleArgs(class, fmt.Sprintf("invalid regular expression %q", v)).WithCause(err)
			}
			b.regex[i] = re
		}
	}
	return b, nil
}

// Class returns the registered class name of the rule.
func (b *Base) Class() string { return b.class }

// Values returns the rule's positional arguments.
func (b *Base) Values() []string { return slices.Clone(b.values) }

// UseRegex reports whether text arguments are regular expressions.
func (b *Base) UseRegex() bool { return b.useRegex }

// RequestPrepare is a no-op for rules without prepared state.
func (b *Base) RequestPrepare(context.Context, record.Database, filter.Progress) error { return nil }

// RequestReset is a no-op for rules without prepared state.
func (b *Base) RequestReset() {}

// IsEmpty reports false; only Everything is empty.
func (b *Base) IsEmpty() bool { return false }

func (b *Base) value(i int) string {
	if i < len(b.values) {
		return b.values[i]
	}
	return ""
}

// flag reads a "0"/"1" (or "True"/"False") argument.
func (b *Base) flag(i int) bool {
	switch strings.ToLower(strings.TrimSpace(b.value(i))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// matchSubstring tests text against argument i: a case-insensitive substring
// match, or a regular expression search with UseRegex. An empty argument
// matches anything.
func (b *Base) matchSubstring(i int, text string) bool {
	v := b.value(i)
	if v == "" {
		return true
	}
	if b.useRegex && i < len(b.regex) {
		return b.regex[i].MatchString(text)
	}
	return strings.Contains(strings.ToUpper(text), strings.ToUpper(v))
}

// matchType compares a type argument with a type name: equal ignoring case,
// or a regular expression search with UseRegex.
func (b *Base) matchType(i int, typ string) bool {
	if b.value(i) == "" {
		return true
	}
	if b.useRegex {
		return b.matchSubstring(i, typ)
	}
	return strings.EqualFold(b.value(i), typ)
}

// preparer is implemented by rules that compute state before a batch run.
type preparer interface {
	prepare(ctx context.Context, db record.Database, progress filter.Progress) error
	reset()
}

// Prepared adds a counted prepare/reset lifecycle to Base: the first
// RequestPrepare calls prepare, the matching last RequestReset calls reset.
type Prepared struct {
	Base
	self preparer
	refs int
}

func newPrepared(class string, args Args, self preparer) (Prepared, error) {
	b, err := newBase(class, args)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{Base: b, self: self}, nil
}

// RequestPrepare runs the prepare function on the first request only.
func (p *Prepared) RequestPrepare(ctx context.Context, db record.Database, progress filter.Progress) error {
	if p.refs == 0 {
		if err := p.self.prepare(ctx, db, progress); err != nil {
			return fmt.Errorf("prepare %s: %w", p.class, err)
		}
	}
	p.refs++
	return nil
}

// RequestReset runs the reset function when the last request is released.
func (p *Prepared) RequestReset() {
	if p.refs == 0 {
		return
	}
	p.refs--
	if p.refs == 0 {
		p.self.reset()
	}
}

// IsPrepared reports whether the rule is between prepare and reset.
func (p *Prepared) IsPrepared() bool {
	return p.refs > 0
}
