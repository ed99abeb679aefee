package ports

import "context"

// TxManager runs fn inside a storage-only transaction.
//
// If ctx already carries a transaction, fn joins it and the outer scope decides the outcome.
// Otherwise a new transaction is committed when fn returns nil and rolled back on any error,
// which is returned unchanged.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
