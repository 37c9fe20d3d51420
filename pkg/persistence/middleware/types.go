// Package middleware decorates row stores with privacy features: column masking and
// column level encryption. Middlewares wrap the store a chain writes to, so every
// action writing through the transaction is covered.
package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// Store is a backend able to start transactions and read committed rows.
type Store interface {
	ports.TransactionProvider
	ports.RowReader
}

// Middleware allows wrapping a Store to add behavior.
type Middleware func(Store) Store

// Wrap applies the middlewares to store. The first middleware is the outermost one.
func Wrap(store Store, mws ...Middleware) Store {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// rowTransformer rewrites the rows of a write before they reach the inner transaction.
type rowTransformer func(object string, rows []domain.Row) ([]domain.Row, error)

// tx decorates a transaction, rewriting the rows written through it.
type tx struct {
	ports.Transaction
	transform rowTransformer
}

var (
	_ ports.Transaction = (*tx)(nil)
	_ ports.RowWriter   = (*tx)(nil)
)

func (t *tx) WriteRows(ctx context.Context, object string, rows []domain.Row) error {
	w, ok := t.Transaction.(ports.RowWriter)
	if !ok {
		return fmt.Errorf("transaction %s cannot write rows", t.ID())
	}
	out, err := t.transform(object, rows)
	if err != nil {
		return err
	}
	return w.WriteRows(ctx, object, out)
}

func begin(ctx context.Context, next Store, transform rowTransformer) (ports.Transaction, error) {
	inner, err := next.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{Transaction: inner, transform: transform}, nil
}

// cloneRows deep copies rows so callers never see the rewritten values.
func cloneRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = deepCopyMap(r)
	}
	return out
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		// Handle nested maps
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}
