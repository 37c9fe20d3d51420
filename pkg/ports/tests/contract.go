package tests

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// CatalogLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.CatalogLoader.
// expected maps every stored ID to the alias its description must carry.
func CatalogLoaderContractTest(t *testing.T, loader ports.CatalogLoader, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Success", func(t *testing.T) {
		for id, alias := range expected {
			desc, err := loader.Get(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting %s: %v", id, err)
			}
			if desc.Alias != alias {
				t.Errorf("alias mismatch for %s. got %q, want %q", id, desc.Alias, alias)
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := loader.Get(ctx, "non-existent-chain")
		if !errors.Is(err, domain.ErrChainNotFound) {
			t.Errorf("expected ErrChainNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing: %v", err)
		}
		if !sort.StringsAreSorted(ids) {
			t.Errorf("expected sorted IDs, got %v", ids)
		}
		found := make(map[string]bool, len(ids))
		for _, id := range ids {
			found[id] = true
		}
		for id := range expected {
			if !found[id] {
				t.Errorf("expected %s in list %v", id, ids)
			}
		}
	})
}
