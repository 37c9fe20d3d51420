package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/google/uuid"
)

// HandlerFunc is the behavior of a FakeAction.
type HandlerFunc func(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error)

// FakeAction is a configurable ports.Action recording every call.
type FakeAction struct {
	mu sync.Mutex

	name         string
	icon         string
	inputRowsMin int
	inputRowsMax int
	effects      []domain.Effect
	capabilities map[domain.Capability]bool
	handler      HandlerFunc

	autocommit []bool
	inputs     []*domain.Dataset
	txs        []ports.Transaction
	surface    *domain.Surface
}

var (
	_ ports.Action        = (*FakeAction)(nil)
	_ ports.SurfaceBinder = (*FakeAction)(nil)
)

// FakeOption configures a FakeAction.
type FakeOption func(*FakeAction)

// WithIcon sets the icon.
func WithIcon(icon string) FakeOption {
	return func(a *FakeAction) { a.icon = icon }
}

// WithRowLimits sets the input row limits.
func WithRowLimits(min, max int) FakeOption {
	return func(a *FakeAction) { a.inputRowsMin, a.inputRowsMax = min, max }
}

// WithEffects declares effects.
func WithEffects(effects ...domain.Effect) FakeOption {
	return func(a *FakeAction) { a.effects = append(a.effects, effects...) }
}

// WithCapability adds a capability.
func WithCapability(c domain.Capability) FakeOption {
	return func(a *FakeAction) { a.capabilities[c] = true }
}

// WithHandler sets the behavior of Handle.
func WithHandler(h HandlerFunc) FakeOption {
	return func(a *FakeAction) { a.handler = h }
}

// NewFakeAction creates an action that returns an empty result unless configured otherwise.
func NewFakeAction(name string, opts ...FakeOption) *FakeAction {
	a := &FakeAction{
		name:         name,
		inputRowsMax: domain.UnlimitedRows,
		capabilities: make(map[domain.Capability]bool),
		handler: func(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
			return domain.NewEmptyResult(task), nil
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *FakeAction) Name() string { return a.name }
func (a *FakeAction) Icon() string { return a.icon }
func (a *FakeAction) InputRowsMin() int { return a.inputRowsMin }
func (a *FakeAction) InputRowsMax() int { return a.inputRowsMax }
func (a *FakeAction) Undoable() bool { return true }
func (a *FakeAction) Effects() []domain.Effect { return a.effects }
func (a *FakeAction) BindSurface(s *domain.Surface) { a.surface = s }

func (a *FakeAction) HasCapability(c domain.Capability) bool {
	return a.capabilities[c]
}

func (a *FakeAction) SetAutocommit(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autocommit = append(a.autocommit, enabled)
}

func (a *FakeAction) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	a.mu.Lock()
	a.inputs = append(a.inputs, task.InputData)
	a.txs = append(a.txs, tx)
	a.mu.Unlock()
	return a.handler(ctx, task, tx)
}

// Calls returns how often Handle ran.
func (a *FakeAction) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inputs)
}

// Inputs returns the input data of every call.
func (a *FakeAction) Inputs() []*domain.Dataset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*domain.Dataset(nil), a.inputs...)
}

// Transactions returns the transaction of every call.
func (a *FakeAction) Transactions() []ports.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ports.Transaction(nil), a.txs...)
}

// AutocommitCalls returns the values passed to SetAutocommit.
func (a *FakeAction) AutocommitCalls() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.autocommit...)
}

// BoundSurface returns the surface passed to BindSurface.
func (a *FakeAction) BoundSurface() *domain.Surface {
	return a.surface
}

// ReturnData makes the action produce data.
func ReturnData(data *domain.Dataset, modified bool) HandlerFunc {
	return func(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
		return domain.NewDataResult(task, data, modified), nil
	}
}

// ReturnMessage makes the action produce a message.
func ReturnMessage(msg string) HandlerFunc {
	return func(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
		return domain.NewMessageResult(task, msg), nil
	}
}

// ReturnError makes the action fail.
func ReturnError(err error) HandlerFunc {
	return func(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
		return nil, err
	}
}

// ErrBoom is a generic failure for tests.
var ErrBoom = errors.New("boom")

// FakeTx is a transaction counting Commit and Rollback calls.
type FakeTx struct {
	mu        sync.Mutex
	id        string
	status    domain.TxStatus
	Commits   int
	Rollbacks int
	// CommitErr is returned by Commit when set.
	CommitErr error
}

var _ ports.Transaction = (*FakeTx)(nil)

// NewFakeTx creates an open transaction.
func NewFakeTx() *FakeTx {
	return &FakeTx{id: uuid.NewString(), status: domain.TxOpen}
}

func (t *FakeTx) ID() string { return t.id }

func (t *FakeTx) Status() domain.TxStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *FakeTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Commits++
	if t.status != domain.TxOpen {
		return domain.ErrTransactionClosed
	}
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.status = domain.TxCommitted
	return nil
}

func (t *FakeTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Rollbacks++
	if t.status != domain.TxOpen {
		return domain.ErrTransactionClosed
	}
	t.status = domain.TxRolledBack
	return nil
}

// FakeProvider hands out FakeTx transactions and remembers them.
type FakeProvider struct {
	mu  sync.Mutex
	Txs []*FakeTx
	// BeginErr is returned by Begin when set.
	BeginErr error
}

var _ ports.TransactionProvider = (*FakeProvider)(nil)

func (p *FakeProvider) Begin(ctx context.Context) (ports.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.BeginErr != nil {
		return nil, p.BeginErr
	}
	tx := NewFakeTx()
	p.Txs = append(p.Txs, tx)
	return tx, nil
}
