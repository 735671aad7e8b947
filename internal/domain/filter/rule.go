package filter

import (
	"context"

	"kinfilter/internal/domain/record"
)

// Rule is a single predicate over one record.
//
// RequestPrepare is called once on every top-level rule before a batch run and
// RequestReset once after it. Implementations count nested requests so that a
// second prepare without an intervening reset does not redo the work.
type Rule interface {
	// ApplyToOne evaluates the rule against raw record data. data must not be modified.
	ApplyToOne(ctx context.Context, db record.Database, data record.Data) (bool, error)

	RequestPrepare(ctx context.Context, db record.Database, progress Progress) error
	RequestReset()

	// IsEmpty reports whether the rule matches every record vacuously.
	IsEmpty() bool
}

// MappedRule is a rule that, once prepared, knows the full set of handles it matches.
// Map returns nil when the rule has not been prepared.
type MappedRule interface {
	Rule
	Map() HandleSet
}

// NestedRule is a rule that delegates to another filter.
// FindFilter returns nil when the filter cannot be resolved.
type NestedRule interface {
	Rule
	FindFilter() *Filter
}
