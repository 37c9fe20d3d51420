package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// Resolver turns a description into an executable action, validating it on the way.
type Resolver interface {
	Resolve(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error)
}

// ValidateCatalog loads every chain of the catalog (or only the given IDs) and resolves it.
// All problems are collected instead of stopping at the first one.
func ValidateCatalog(ctx context.Context, catalog ports.CatalogLoader, resolver Resolver, ids ...string) error {
	if len(ids) == 0 {
		var err error
		ids, err = catalog.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list chains: %w", err)
		}
	}

	var errors []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		desc, err := catalog.Get(ctx, id)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Missing chain or load error: '%s': %v", id, err))
			continue
		}

		if _, err := resolver.Resolve(ctx, desc, nil); err != nil {
			errors = append(errors, fmt.Sprintf("Invalid chain '%s': %s", id, indent(err.Error())))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}

// indent keeps multi-line validation reports readable inside the bullet list.
func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n    ")
}
