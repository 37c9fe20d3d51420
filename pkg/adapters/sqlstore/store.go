// Package sqlstore persists rows in a relational database through sqlx.
//
// Every row is stored as a JSON document in one table, tagged with the object it
// belongs to. Each catena transaction maps onto one database transaction.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

// DefaultTable is the table holding the rows unless WithTable says otherwise.
const DefaultTable = "catena_rows"

// Store implements ports.TransactionProvider and ports.RowReader on top of sqlx.
type Store struct {
	db     *sqlx.DB
	flavor sqlbuilder.Flavor
	table  string
}

var (
	_ ports.TransactionProvider = (*Store)(nil)
	_ ports.RowReader           = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithTable sets the table name.
func WithTable(table string) Option {
	return func(s *Store) {
		s.table = table
	}
}

// WithFlavor overrides the SQL dialect derived from the driver name.
func WithFlavor(f sqlbuilder.Flavor) Option {
	return func(s *Store) {
		s.flavor = f
	}
}

// Open connects with driverName ("sqlite", "postgres", ...) and returns a Store.
// The driver itself must be imported by the caller.
func Open(driverName, dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	return New(db, opts...), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		flavor: flavorOf(db.DriverName()),
		table:  DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func flavorOf(driverName string) sqlbuilder.Flavor {
	switch driverName {
	case "postgres", "pgx":
		return sqlbuilder.PostgreSQL
	case "mysql":
		return sqlbuilder.MySQL
	default:
		return sqlbuilder.SQLite
	}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the row table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	ctb := s.flavor.NewCreateTableBuilder()
	ctb.CreateTable(s.table).IfNotExists()
	switch s.flavor {
	case sqlbuilder.PostgreSQL:
		ctb.Define("id", "BIGSERIAL", "PRIMARY KEY")
	case sqlbuilder.MySQL:
		ctb.Define("id", "BIGINT", "AUTO_INCREMENT", "PRIMARY KEY")
	default:
		ctb.Define("id", "INTEGER", "PRIMARY KEY", "AUTOINCREMENT")
	}
	ctb.Define("object", "VARCHAR(255)", "NOT NULL")
	ctb.Define("payload", "TEXT", "NOT NULL")

	query, args := ctb.Build()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Begin starts a database transaction.
func (s *Store) Begin(ctx context.Context) (ports.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{
		id:     uuid.NewString(),
		tx:     tx,
		store:  s,
		status: domain.TxOpen,
	}, nil
}

// ReadRows returns the committed rows of object in insertion order.
func (s *Store) ReadRows(ctx context.Context, object string) ([]domain.Row, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select("payload").From(s.table).Where(sb.Equal("object", object)).OrderBy("id").Asc()
	query, args := sb.Build()

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", object, err)
	}
	return decodeRows(object, payloads)
}

func decodeRows(object string, payloads []string) ([]domain.Row, error) {
	rows := make([]domain.Row, 0, len(payloads))
	for i, p := range payloads {
		var row domain.Row
		if err := json.Unmarshal([]byte(p), &row); err != nil {
			return nil, fmt.Errorf("corrupt row %d of %s: %w", i, object, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Tx is a Store transaction.
type Tx struct {
	id     string
	tx     *sqlx.Tx
	store  *Store
	mu     sync.Mutex
	status domain.TxStatus
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

// WriteRows inserts rows within the transaction.
func (t *Tx) WriteRows(ctx context.Context, object string, rows []domain.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("write to transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	if len(rows) == 0 {
		return nil
	}

	ib := t.store.flavor.NewInsertBuilder()
	ib.InsertInto(t.store.table).Cols("object", "payload")
	for _, row := range rows {
		doc, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row of %s: %w", object, err)
		}
		ib.Values(object, string(doc))
	}
	query, args := ib.Build()
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to write rows of %s: %w", object, err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("commit transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", t.id, err)
	}
	t.status = domain.TxCommitted
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TxOpen {
		return fmt.Errorf("rollback transaction %s: %w", t.id, domain.ErrTransactionClosed)
	}
	// The transaction is gone on the server side even if the driver reports an error.
	t.status = domain.TxRolledBack
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback transaction %s: %w", t.id, err)
	}
	return nil
}
