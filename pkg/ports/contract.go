package ports

import (
	"context"
	"testing"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTransactionProviderContract runs a suite of tests to verify that a TransactionProvider
// adheres to the defined interface contract. Transactions returned by the provider must
// implement RowWriter, and reader must observe committed rows only.
func RunTransactionProviderContract(t *testing.T, provider TransactionProvider, reader RowReader) {
	ctx := context.Background()

	begin := func(t *testing.T) (Transaction, RowWriter) {
		t.Helper()
		tx, err := provider.Begin(ctx)
		require.NoError(t, err, "Begin should not return error")
		require.Equal(t, domain.TxOpen, tx.Status())
		w, ok := tx.(RowWriter)
		require.True(t, ok, "transaction must implement RowWriter")
		return tx, w
	}

	t.Run("Commit makes rows visible", func(t *testing.T) {
		tx, w := begin(t)
		rows := []domain.Row{{"id": "1", "status": "new"}, {"id": "2", "status": "new"}}
		require.NoError(t, w.WriteRows(ctx, "contract_commit", rows))

		// Nothing is visible before commit
		visible, err := reader.ReadRows(ctx, "contract_commit")
		require.NoError(t, err)
		assert.Empty(t, visible)

		require.NoError(t, tx.Commit(ctx))
		assert.Equal(t, domain.TxCommitted, tx.Status())

		visible, err = reader.ReadRows(ctx, "contract_commit")
		require.NoError(t, err)
		require.Len(t, visible, 2)
		assert.Equal(t, "1", visible[0]["id"])
		assert.Equal(t, "2", visible[1]["id"])
	})

	t.Run("Rollback discards rows", func(t *testing.T) {
		tx, w := begin(t)
		require.NoError(t, w.WriteRows(ctx, "contract_rollback", []domain.Row{{"id": "1"}}))
		require.NoError(t, tx.Rollback(ctx))
		assert.Equal(t, domain.TxRolledBack, tx.Status())

		visible, err := reader.ReadRows(ctx, "contract_rollback")
		require.NoError(t, err)
		assert.Empty(t, visible)
	})

	t.Run("Closed transaction rejects use", func(t *testing.T) {
		tx, w := begin(t)
		require.NoError(t, tx.Commit(ctx))

		assert.ErrorIs(t, tx.Commit(ctx), domain.ErrTransactionClosed)
		assert.ErrorIs(t, tx.Rollback(ctx), domain.ErrTransactionClosed)
		assert.ErrorIs(t, w.WriteRows(ctx, "contract_closed", []domain.Row{{"id": "1"}}), domain.ErrTransactionClosed)
	})

	t.Run("Transactions are independent", func(t *testing.T) {
		tx1, w1 := begin(t)
		tx2, _ := begin(t)
		assert.NotEqual(t, tx1.ID(), tx2.ID())

		require.NoError(t, w1.WriteRows(ctx, "contract_independent", []domain.Row{{"id": "1"}}))
		require.NoError(t, tx2.Commit(ctx))

		visible, err := reader.ReadRows(ctx, "contract_independent")
		require.NoError(t, err)
		assert.Empty(t, visible, "committing one transaction must not publish another one's writes")

		require.NoError(t, tx1.Rollback(ctx))
	})
}
