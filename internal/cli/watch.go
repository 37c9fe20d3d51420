package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/catena/internal/validator"
)

// reloadDelay lets editors finish writing before the catalog is read again.
const reloadDelay = 100 * time.Millisecond

// RunWatch validates the catalog, then validates every chain again whenever its
// document changes, until ctx is canceled. Validation failures are reported, not returned.
func RunWatch(ctx context.Context, cfg Config, out io.Writer) error {
	logger := createLogger(cfg)

	engine, backend, err := createEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	report := func(ids ...string) {
		if err := validator.ValidateCatalog(ctx, engine.Catalog(), engine, ids...); err != nil {
			printSystemMessage(out, "Validation failed: %v", err)
			return
		}
		if len(ids) == 0 {
			printSystemMessage(out, "Catalog is valid.")
			return
		}
		printSystemMessage(out, "'%s' is valid.", ids[0])
	}

	watchCh, err := engine.Watch(ctx)
	if err != nil {
		return err
	}

	logger.Info("Starting Watcher", "path", cfg.RepoPath)
	report()
	printSystemMessage(out, "Waiting for changes...")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping watcher")
			return nil
		case id, ok := <-watchCh:
			if !ok {
				return nil
			}
			logger.Info("Change detected", "chain", id)
			printSystemMessage(out, "Change detected in '%s'.", id)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reloadDelay):
			}

			if exists(ctx, engine.Catalog(), id) {
				report(id)
			} else {
				// Deleted or renamed: other chains may still be fine, recheck them all.
				report()
			}
		}
	}
}

type lister interface {
	List(ctx context.Context) ([]string, error)
}

func exists(ctx context.Context, catalog lister, id string) bool {
	ids, err := catalog.List(ctx)
	if err != nil {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Validate checks the whole catalog (or the given IDs) once.
func Validate(ctx context.Context, cfg Config, ids ...string) error {
	logger := createLogger(cfg)
	engine, backend, err := createEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := validator.ValidateCatalog(ctx, engine.Catalog(), engine, ids...); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
