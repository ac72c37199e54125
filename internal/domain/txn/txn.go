// Package txn declares the transaction boundary used by domain services.
package txn

import "context"

// Runner executes fn inside a single all-or-nothing unit of work. The context
// passed to fn carries the transaction; repositories called with it join the
// same transaction. Returning an error from fn rolls everything back.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Noop runs fn directly without a transaction. It is meant for tests and for
// stores that have no transactional semantics.
type Noop struct{}

// RunInTx calls fn with ctx unchanged.
func (Noop) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
