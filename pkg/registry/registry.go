// Package registry maps action aliases to constructors.
// A *Registry is the ports.ActionFactory used to instantiate described actions.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// Constructor builds an action from its description.
// surface is the surface that triggered the action and may be nil.
type Constructor func(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error)

type entry struct {
	alias  string
	ctor   Constructor
	params schema.Schema
}

// Registry manages the available actions. Aliases are matched case-insensitively.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ ports.ActionFactory = (*Registry)(nil)

// RegisterOption configures a registration.
type RegisterOption func(*entry)

// WithParams declares the parameters an action accepts. Create rejects descriptions
// whose params do not match.
func WithParams(s schema.Schema) RegisterOption {
	return func(e *entry) {
		e.params = s
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register adds an action constructor to the registry.
// If an action with the same alias exists, it is overwritten.
func (r *Registry) Register(alias string, ctor Constructor, opts ...RegisterOption) {
	e := entry{alias: alias, ctor: ctor}
	for _, opt := range opts {
		opt(&e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key(alias)] = e
}

// Create looks up the constructor for desc.Alias and builds the action.
// Unknown aliases yield an error wrapping domain.ErrUnknownAction.
func (r *Registry) Create(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	r.mu.RLock()
	e, ok := r.entries[key(desc.Alias)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAction, desc.Alias)
	}
	if err := schema.Validate(e.params, desc.Params); err != nil {
		return nil, fmt.Errorf("invalid params for %s: %w", e.alias, err)
	}
	return e.ctor(ctx, desc, surface)
}

// Has reports whether alias is registered.
func (r *Registry) Has(alias string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key(alias)]
	return ok
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aliases := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		aliases = append(aliases, e.alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Params returns the parameter schema declared for alias, if any.
func (r *Registry) Params(alias string) (schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key(alias)]
	if !ok || e.params == nil {
		return nil, false
	}
	return e.params, true
}

// DecodeParams decodes description params into out, a pointer to a struct tagged
// with `mapstructure`. Scalars given as strings are converted.
func DecodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}

func key(alias string) string {
	return strings.ToLower(alias)
}
