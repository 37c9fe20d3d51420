package ports

import (
	"context"

	"github.com/aretw0/catena/pkg/domain"
)

// CatalogLoader defines where named chain descriptions come from.
// This allows the storage layer (Loam, Memory) to be decoupled.
type CatalogLoader interface {
	// Get retrieves the description stored under id.
	// It returns an error wrapping domain.ErrChainNotFound if there is none.
	Get(ctx context.Context, id string) (domain.ActionDescription, error)

	// List returns the IDs of all available descriptions in a deterministic order.
	List(ctx context.Context) ([]string, error)
}

// Watchable is implemented by catalogs that can report changes of their descriptions.
type Watchable interface {
	// Watch emits the ID (or path) of every changed description until ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
