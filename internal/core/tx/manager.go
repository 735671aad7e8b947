// Package tx provides transaction management abstractions shared by the record
// stores, so that handlers can run a batch evaluation against one consistent
// view of the data without knowing which store backs it.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Snapshotter runs read-only work against a stable snapshot.
// Every read made through the ctx passed to fn sees the same data.
type Snapshotter interface {
	Snapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// None is a Snapshotter for stores without transactions: fn runs directly.
type None struct{}

func (None) Snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
