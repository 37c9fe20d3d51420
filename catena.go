package catena

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/actions"
	"github.com/aretw0/catena/pkg/adapters/loam"
	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
	"go.opentelemetry.io/otel/trace"
)

// DefaultLockTTL bounds how long a catalog chain may hold its distributed lock.
const DefaultLockTTL = 30 * time.Second

// Engine is the high-level entry point of the library.
// It resolves chain descriptions through its action registry and runs them against
// the configured transaction provider.
type Engine struct {
	catalog  ports.CatalogLoader
	registry *registry.Registry
	provider ports.TransactionProvider
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	tracer   trace.Tracer
	custom   []customAction
	Name     string
}

type customAction struct {
	alias string
	ctor  registry.Constructor
	opts  []registry.RegisterOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks on every chain the engine builds.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCatalog injects a custom CatalogLoader, bypassing the default Loam initialization.
func WithCatalog(c ports.CatalogLoader) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithTransactionProvider sets the backend transactions are started from.
// Defaults to an in-memory store.
func WithTransactionProvider(p ports.TransactionProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithLocker guards ExecuteByID with a distributed lock per chain ID.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer sets the tracer chains create their spans with.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithAction registers a custom action next to the built-in ones.
func WithAction(alias string, ctor registry.Constructor, opts ...registry.RegisterOption) Option {
	return func(e *Engine) {
		e.custom = append(e.custom, customAction{alias: alias, ctor: ctor, opts: opts})
	}
}

// New initializes a new Engine.
// By default, chain descriptions are read from a Loam repository at repoPath.
// If WithCatalog is provided, repoPath can be empty and Loam is skipped.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.catalog == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom catalog is provided")
		}
		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		catalog, err := loam.Open(absPath)
		if err != nil {
			return nil, err
		}
		eng.catalog = catalog
	} else if repoPath != "" {
		eng.Name = filepath.Base(repoPath)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("catalog", eng.Name)
	}
	if eng.provider == nil {
		eng.provider = memory.NewStore()
	}

	eng.registry = actions.NewRegistry(eng.chainOptions()...)
	for _, c := range eng.custom {
		eng.registry.Register(c.alias, c.ctor, c.opts...)
	}
	return eng, nil
}

// chainOptions are applied to every chain, nested ones included.
func (e *Engine) chainOptions() []chain.Option {
	opts := []chain.Option{
		chain.WithLogger(e.logger),
		chain.WithLifecycleHooks(e.hooks),
		chain.WithTransactionProvider(e.provider),
	}
	if e.tracer != nil {
		opts = append(opts, chain.WithTracer(e.tracer))
	}
	return opts
}

// Resolve validates desc and instantiates it. A chain description yields a *chain.Chain.
func (e *Engine) Resolve(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	if err := schema.ValidateDescription(desc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDescription, describeName(desc), err)
	}
	return e.registry.Create(ctx, desc, surface)
}

// Execute resolves desc and runs it with task.
// When tx is nil the engine begins a transaction, commits it on success and rolls it
// back on failure. A transaction passed in stays under the caller's control.
func (e *Engine) Execute(ctx context.Context, desc domain.ActionDescription, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	var surface *domain.Surface
	if task != nil {
		surface = task.Surface
	}
	action, err := e.Resolve(ctx, desc, surface)
	if err != nil {
		return nil, err
	}

	if tx != nil {
		return action.Handle(ctx, task, tx)
	}

	tx, err = e.provider.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	res, err := action.Handle(ctx, task, tx)
	if err != nil {
		if tx.Status() == domain.TxOpen {
			if rerr := tx.Rollback(ctx); rerr != nil {
				e.logger.ErrorContext(ctx, "failed to roll back transaction", "tx", tx.ID(), "err", rerr)
			}
		}
		return nil, err
	}
	if tx.Status() == domain.TxOpen {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit transaction %s: %w", tx.ID(), err)
		}
	}
	return res, nil
}

// ExecuteByID loads the chain stored under id and executes it.
// With a locker configured, executions of the same id never overlap.
func (e *Engine) ExecuteByID(ctx context.Context, id string, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	desc, err := e.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "chain:"+id, e.lockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.WarnContext(ctx, "failed to release chain lock", "id", id, "err", err)
			}
		}()
	}

	res, err := e.Execute(ctx, desc, task, tx)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", id, err)
	}
	return res, nil
}

// Describe returns the description stored under id.
func (e *Engine) Describe(ctx context.Context, id string) (domain.ActionDescription, error) {
	return e.catalog.Get(ctx, id)
}

// List returns the IDs of the catalog.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.catalog.List(ctx)
}

// Effects resolves the chain stored under id and returns its merged effects.
func (e *Engine) Effects(ctx context.Context, id string) ([]domain.Effect, error) {
	desc, err := e.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	action, err := e.Resolve(ctx, desc, nil)
	if err != nil {
		return nil, err
	}
	return action.Effects(), nil
}

// Watch returns a channel that signals when the underlying catalog changes.
// Returns error if the catalog does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.catalog.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current catalog does not support watching")
}

// Catalog returns the catalog the engine reads descriptions from.
func (e *Engine) Catalog() ports.CatalogLoader {
	return e.catalog
}

// Registry returns the action registry, built-in actions included.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Provider returns the transaction provider.
func (e *Engine) Provider() ports.TransactionProvider {
	return e.provider
}

func describeName(desc domain.ActionDescription) string {
	if desc.Name != "" {
		return desc.Name
	}
	return desc.Alias
}
