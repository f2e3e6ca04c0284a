package domain

import "context"

// Transactor runs fn as one unit of work when the store supports it.
// Repositories called with the ctx passed to fn take part in that unit.
// Implementations without transaction support run fn directly, so callers
// must keep every step idempotent.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Transactional reports whether a failing fn rolls back its earlier steps.
	Transactional() bool
}
