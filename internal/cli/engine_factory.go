package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/adapters/process"
	"github.com/aretw0/catena/pkg/adapters/redis"
	"github.com/aretw0/catena/pkg/adapters/sqlstore"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/aretw0/catena/pkg/persistence/middleware"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"

	// SQL drivers for the sqlite and postgres backends.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Backend is the store the engine writes to, plus what must be released on exit.
type Backend struct {
	Provider ports.TransactionProvider
	Reader   ports.RowReader
	Locker   ports.DistributedLocker
	close    func() error
}

// Close releases the backend connections.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// openBackend connects the store selected by cfg.Backend and applies the privacy middlewares.
func openBackend(ctx context.Context, cfg Config) (*Backend, error) {
	b, err := connectBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.MaskColumns) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.MaskColumns)
		if err != nil {
			return nil, errors.Join(err, b.Close())
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    cfg.EncryptionKey,
			FallbackKeys: cfg.FallbackKeys,
			Columns:      cfg.EncryptColumns,
		})
		if err != nil {
			return nil, errors.Join(err, b.Close())
		}
		mws = append(mws, mw)
	}
	if len(mws) > 0 {
		store := middleware.Wrap(storeOf{b.Provider, b.Reader}, mws...)
		b.Provider, b.Reader = store, store
	}
	return b, nil
}

type storeOf struct {
	ports.TransactionProvider
	ports.RowReader
}

func connectBackend(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Backend {
	case BackendMemory:
		store := memory.NewStore()
		return &Backend{
			Provider: store,
			Reader:   store,
			Locker:   memory.NewLocker(),
		}, nil

	case BackendRedis:
		store := redis.New(cfg.RedisAddr)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis at %s is not reachable: %w", cfg.RedisAddr, err)
		}
		return &Backend{
			Provider: store,
			Reader:   store,
			Locker:   redis.NewLocker(store.Client(), "catena:"),
			close:    store.Close,
		}, nil

	case BackendSQLite, BackendPostgres:
		store, err := sqlstore.Open(cfg.Backend, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return &Backend{
			Provider: store,
			Reader:   store,
			Locker:   memory.NewLocker(),
			close:    store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// createEngine initializes a catena engine with standard CLI conventions.
// The caller must close the returned backend.
func createEngine(ctx context.Context, cfg Config, logger *slog.Logger, extra ...catena.Option) (*catena.Engine, *Backend, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// 1. Logger & Hooks
	engineOpts := []catena.Option{
		catena.WithLogger(logger),
		catena.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}

	// 2. Storage
	engineOpts = append(engineOpts,
		catena.WithTransactionProvider(backend.Provider),
		catena.WithLocker(backend.Locker, cfg.LockTTL),
	)

	// 3. External commands
	if cfg.CommandsFile != "" {
		commands, err := process.LoadCommands(cfg.CommandsFile)
		if err != nil {
			return nil, nil, errors.Join(err, backend.Close())
		}
		runner := process.NewRunner(process.WithCommands(commands), process.WithBaseDir(filepath.Dir(cfg.CommandsFile)))
		engineOpts = append(engineOpts,
			catena.WithAction(process.Alias, runner.Constructor(), registry.WithParams(process.ParamSchema())))
	}
	engineOpts = append(engineOpts, extra...)

	// 4. Initialize
	engine, err := catena.New(cfg.RepoPath, engineOpts...)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("error initializing engine: %w", err), backend.Close())
	}
	return engine, backend, nil
}
