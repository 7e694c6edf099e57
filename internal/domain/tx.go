package domain

import "context"

// Transactor runs fn inside a single database transaction. Repositories called with
// the ctx passed to fn join that transaction. fn's error rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
