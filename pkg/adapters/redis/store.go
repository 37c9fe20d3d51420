package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "catena:"

// Store keeps rows of each object in a Redis list holding one JSON document per row.
// Transactions buffer their writes and flush them in a single MULTI/EXEC on Commit.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var (
	_ ports.TransactionProvider = (*Store)(nil)
	_ ports.RowReader           = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the key prefix for all stored data. Defaults to "catena:".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL sets an expiration on the row lists, refreshed on every commit.
// Zero (default) keeps rows forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New connects to addr and returns a Store.
func New(addr string, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) rowsKey(object string) string {
	return s.prefix + "rows:" + object
}

// Begin starts a new transaction. No Redis round trip happens before Commit.
func (s *Store) Begin(ctx context.Context) (ports.Transaction, error) {
	return &Tx{
		id:     uuid.NewString(),
		store:  s,
		status: domain.TxOpen,
	}, nil
}

// ReadRows returns the committed rows of object in insertion order.
func (s *Store) ReadRows(ctx context.Context, object string) ([]domain.Row, error) {
	docs, err := s.client.LRange(ctx, s.rowsKey(object), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", object, err)
	}
	rows := make([]domain.Row, 0, len(docs))
	for i, doc := range docs {
		var row domain.Row
		if err := json.Unmarshal([]byte(doc), &row); err != nil {
			return nil, fmt.Errorf("corrupt row %d of %s: %w", i, object, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Tx is a transaction of a Store.
type Tx struct {
	id     string
	store  *Store
	mu     sync.Mutex
	status domain.TxStatus
	// pending rows per object, already encoded
	pending map[string][]any
	order   []string
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

// WriteRows encodes rows and buffers them until Commit.
func (t *Tx) WriteRows(ctx context.Context, object string, rows []domain.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("write to transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	if t.pending == nil {
		t.pending = make(map[string][]any)
	}
	for _, row := range rows {
		doc, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row of %s: %w", object, err)
		}
		if _, seen := t.pending[object]; !seen {
			t.order = append(t.order, object)
		}
		t.pending[object] = append(t.pending[object], string(doc))
	}
	return nil
}

// Commit pushes all buffered rows atomically.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("commit transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}

	if len(t.pending) > 0 {
		_, err := t.store.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			for _, object := range t.order {
				key := t.store.rowsKey(object)
				pipe.RPush(ctx, key, t.pending[object]...)
				if t.store.ttl > 0 {
					pipe.Expire(ctx, key, t.store.ttl)
				}
			}
			return nil
		})
		if err != nil {
			// The transaction stays open so the owner can still roll it back.
			return fmt.Errorf("redis commit of transaction %s failed: %w", t.id, err)
		}
	}

	t.pending, t.order = nil, nil
	t.status = domain.TxCommitted
	return nil
}

// Rollback drops the buffered rows.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("rollback transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	t.pending, t.order = nil, nil
	t.status = domain.TxRolledBack
	return nil
}
