package ports

import (
	"context"

	"github.com/aretw0/catena/pkg/domain"
)

// Transaction is a unit of work against one data backend.
// Ownership of Commit and Rollback belongs to whoever began the transaction.
type Transaction interface {
	// ID returns a unique identifier, useful for logs.
	ID() string
	// Status returns the lifecycle state of the transaction.
	Status() domain.TxStatus
	// Commit makes all writes of the transaction visible.
	Commit(ctx context.Context) error
	// Rollback discards all writes of the transaction.
	Rollback(ctx context.Context) error
}

// TransactionProvider starts new transactions.
type TransactionProvider interface {
	Begin(ctx context.Context) (Transaction, error)
}

// RowWriter is implemented by transactions able to persist rows.
// Writes become visible to readers only after Commit.
type RowWriter interface {
	WriteRows(ctx context.Context, object string, rows []domain.Row) error
}

// RowReader reads committed rows of an object from a backend.
type RowReader interface {
	ReadRows(ctx context.Context, object string) ([]domain.Row, error)
}
