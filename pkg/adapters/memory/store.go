package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/google/uuid"
)

// Store keeps committed rows per object in memory and hands out transactions
// buffering their writes until Commit.
// Safe for concurrent use.
type Store struct {
	rows map[string][]domain.Row
	mu   sync.RWMutex
}

var (
	_ ports.TransactionProvider = (*Store)(nil)
	_ ports.RowReader           = (*Store)(nil)
)

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		rows: make(map[string][]domain.Row),
	}
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (ports.Transaction, error) {
	return &Tx{
		id:     uuid.NewString(),
		store:  s,
		status: domain.TxOpen,
	}, nil
}

// ReadRows returns copies of the committed rows of object in insertion order.
func (s *Store) ReadRows(ctx context.Context, object string) ([]domain.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.rows[object]), nil
}

// Objects returns the number of objects with committed rows.
func (s *Store) Objects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store) apply(pending []write) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range pending {
		s.rows[w.object] = append(s.rows[w.object], w.rows...)
	}
}

type write struct {
	object string
	rows   []domain.Row
}

// Tx is a transaction of a Store.
type Tx struct {
	id      string
	store   *Store
	mu      sync.Mutex
	status  domain.TxStatus
	pending []write
}

var (
	_ ports.Transaction = (*Tx)(nil)
	_ ports.RowWriter   = (*Tx)(nil)
)

func (t *Tx) ID() string { return t.id }

func (t *Tx) Status() domain.TxStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// WriteRows buffers rows for object. They are copied, later changes by the caller
// do not leak into the store.
func (t *Tx) WriteRows(ctx context.Context, object string, rows []domain.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("write to transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	t.pending = append(t.pending, write{object: object, rows: cloneRows(rows)})
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("commit transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	t.store.apply(t.pending)
	t.pending = nil
	t.status = domain.TxCommitted
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("rollback transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	t.pending = nil
	t.status = domain.TxRolledBack
	return nil
}

func cloneRows(rows []domain.Row) []domain.Row {
	if len(rows) == 0 {
		return []domain.Row{}
	}
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
