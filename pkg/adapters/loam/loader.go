package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/loam"
)

// Catalog adapts a Loam repository to the ports.CatalogLoader interface.
// Each document describes one chain; its ID is the explicit "id" key or the file
// name without extension.
type Catalog struct {
	Repo *loam.TypedRepository[ChainMetadata]
}

var _ ports.CatalogLoader = (*Catalog)(nil)

// New creates a new Loam catalog.
func New(repo *loam.TypedRepository[ChainMetadata]) *Catalog {
	return &Catalog{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string, opts ...loam.Option) (*Catalog, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog path %s: %w", path, err)
	}
	// Strict mode yields json.Number for every numeric value, whatever the format.
	opts = append([]loam.Option{loam.WithStrict(true), loam.WithReadOnly(true)}, opts...)
	repo, err := loam.Init(abs, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", abs, err)
	}
	return New(loam.NewTypedRepository[ChainMetadata](repo)), nil
}

// Get retrieves the description stored under id.
func (c *Catalog) Get(ctx context.Context, id string) (domain.ActionDescription, error) {
	index, err := c.index(ctx)
	if err != nil {
		return domain.ActionDescription{}, err
	}
	docID, ok := index[trimExtension(id)]
	if !ok {
		return domain.ActionDescription{}, fmt.Errorf("%w: %s", domain.ErrChainNotFound, id)
	}

	doc, err := c.Repo.Get(ctx, docID)
	if err != nil {
		return domain.ActionDescription{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return doc.Data.ActionDescription, nil
}

// List returns the normalized IDs of all chains in sorted order.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	index, err := c.index(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// index maps normalized chain IDs to Loam document IDs.
func (c *Catalog) index(ctx context.Context) (map[string]string, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	index := make(map[string]string, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := index[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		index[id] = doc.ID
	}
	return index, nil
}

// Watch emits the normalized ID of every chain document that changes on disk
// until ctx is canceled.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	events, err := c.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, filepath.Ext(id))
}
