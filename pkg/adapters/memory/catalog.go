package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/schema"
)

// Catalog implements ports.CatalogLoader using an in-memory map.
type Catalog struct {
	mu    sync.RWMutex
	descs map[string]domain.ActionDescription
}

var _ ports.CatalogLoader = (*Catalog)(nil)

// NewCatalog creates a catalog holding copies of descs, keyed by ID.
func NewCatalog(descs map[string]domain.ActionDescription) *Catalog {
	c := &Catalog{descs: make(map[string]domain.ActionDescription, len(descs))}
	for id, d := range descs {
		c.descs[id] = d.Copy()
	}
	return c
}

// NewCatalogFromYAML parses raw YAML or JSON documents keyed by ID.
// This handles parsing up front, improving DX for tests.
func NewCatalogFromYAML(docs map[string]string) (*Catalog, error) {
	c := &Catalog{descs: make(map[string]domain.ActionDescription, len(docs))}
	for id, doc := range docs {
		desc, err := schema.Parse([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", id, err)
		}
		c.descs[id] = desc
	}
	return c, nil
}

// Put stores a copy of desc under id, replacing any previous entry.
func (c *Catalog) Put(id string, desc domain.ActionDescription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descs[id] = desc.Copy()
}

// Get retrieves the description stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (domain.ActionDescription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.descs[id]
	if !ok {
		return domain.ActionDescription{}, fmt.Errorf("%w: %s", domain.ErrChainNotFound, id)
	}
	return desc.Copy(), nil
}

// List returns all available IDs.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.descs))
	for id := range c.descs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
