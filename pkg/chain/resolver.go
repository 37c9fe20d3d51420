package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/schema"
)

// Resolver turns chain links into live actions.
type Resolver struct {
	factory ports.ActionFactory
	surface *domain.Surface
	object  domain.MetaObject
}

// NewResolver creates a resolver for a chain bound to surface and operating on object.
// Both may be empty.
func NewResolver(factory ports.ActionFactory, surface *domain.Surface, object domain.MetaObject) *Resolver {
	return &Resolver{
		factory: factory,
		surface: surface,
		object:  object,
	}
}

// Resolve builds the ordered action list. It fails with a *domain.ConfigError on the
// first link that is malformed, cannot be instantiated or renders a surface.
func (r *Resolver) Resolve(ctx context.Context, links []any) ([]ports.Action, error) {
	actions := make([]ports.Action, 0, len(links))
	for idx, link := range links {
		action, err := r.resolveLink(ctx, idx, link)
		if err != nil {
			return nil, err
		}

		// A chained action opening a surface would never be seen by the user.
		if action.HasCapability(domain.CapabilityRendersSurface) {
			return nil, domain.NewConfigError(domain.CodeSurfaceAction, idx, domain.ErrSurfaceAction,
				"action %q renders a surface and cannot be used within an action chain", action.Name())
		}

		// All actions are called by the surface that called the chain.
		if r.surface != nil {
			if b, ok := action.(ports.SurfaceBinder); ok {
				b.BindSurface(r.surface)
			}
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func (r *Resolver) resolveLink(ctx context.Context, idx int, link any) (ports.Action, error) {
	switch v := link.(type) {
	case ports.Action:
		return v, nil
	case domain.ActionDescription:
		return r.instantiate(ctx, idx, v)
	case *domain.ActionDescription:
		if v == nil {
			break
		}
		return r.instantiate(ctx, idx, *v)
	case map[string]any:
		desc, err := schema.DecodeDescription(v)
		if err != nil {
			return nil, domain.NewConfigError(domain.CodeInvalidDescription, idx, err,
				"chain link cannot be decoded: %v", err)
		}
		return r.instantiate(ctx, idx, desc)
	}

	ce := domain.NewConfigError(domain.CodeInvalidLink, idx, domain.ErrInvalidLink,
		"invalid chain link of type %q: only actions or their descriptions can be used", fmt.Sprintf("%T", link))
	ce.Type = fmt.Sprintf("%T", link)
	return nil, ce
}

func (r *Resolver) instantiate(ctx context.Context, idx int, desc domain.ActionDescription) (ports.Action, error) {
	if r.factory == nil {
		return nil, domain.NewConfigError(domain.CodeUnknownAction, idx, domain.ErrUnknownAction,
			"no action factory available to instantiate %q", desc.Alias)
	}

	desc = desc.Copy()
	// Without a triggering surface a child action has no other way to find its
	// object: it does not know it is part of a chain.
	if r.surface == nil && desc.ObjectAlias == "" && !r.object.IsZero() {
		desc.ObjectAlias = r.object.AliasWithNamespace()
	}

	action, err := r.factory.Create(ctx, desc, r.surface)
	if err != nil {
		var ce *domain.ConfigError
		switch {
		case errors.As(err, &ce):
			// Nested chain: keep the inner position, add ours.
			return nil, fmt.Errorf("chain link %d (%s): %w", idx, desc.Alias, err)
		case errors.Is(err, domain.ErrUnknownAction):
			return nil, domain.NewConfigError(domain.CodeUnknownAction, idx, err,
				"cannot instantiate %q: %v", desc.Alias, err)
		default:
			return nil, domain.NewConfigError(domain.CodeInvalidDescription, idx, err,
				"cannot instantiate %q: %v", desc.Alias, err)
		}
	}
	if action == nil {
		return nil, domain.NewConfigError(domain.CodeInvalidDescription, idx, domain.ErrInvalidDescription,
			"factory returned no action for %q", desc.Alias)
	}
	return action, nil
}
