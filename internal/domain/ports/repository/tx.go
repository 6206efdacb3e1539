package repository

import "context"

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres). Repositories MUST gracefully accept a nil handle
// and fall back to the shared pool.
type Tx interface{}

// NoTX is passed where no transaction is in flight.
var NoTX Tx

// TransactionManager executes a function inside a single database
// transaction, passing the handle via tx. If fn returns an error the
// transaction is rolled back, otherwise committed. Keeping the handle
// opaque keeps use-case interfaces free of driver types.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
