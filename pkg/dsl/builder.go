package dsl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/domain"
)

// Builder manages the construction of a chain catalog.
type Builder struct {
	chains map[string]*ChainBuilder
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{
		chains: make(map[string]*ChainBuilder),
	}
}

// Add creates a new chain in the catalog.
// If the chain already exists, it returns the existing builder.
func (b *Builder) Add(id string) *ChainBuilder {
	if cb, ok := b.chains[id]; ok {
		return cb
	}
	cb := Chain(id)
	b.chains[id] = cb
	return cb
}

// Build validates every chain and compiles the catalog into an in-memory catalog.
func (b *Builder) Build() (*memory.Catalog, error) {
	ids := make([]string, 0, len(b.chains))
	for id := range b.chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	descs := make(map[string]domain.ActionDescription, len(ids))
	var errs []error
	for _, id := range ids {
		desc, err := b.chains[id].Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("chain %s: %w", id, err))
			continue
		}
		descs[id] = desc
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return memory.NewCatalog(descs), nil
}
