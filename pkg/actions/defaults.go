package actions

import (
	"context"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
)

// RegisterDefaults registers every built-in action with reg.
// chainOpts are applied to each chain built from a description, nested ones included,
// which is how chains get their logger, hooks and transaction provider.
func RegisterDefaults(reg *registry.Registry, chainOpts ...chain.Option) {
	reg.Register(domain.AliasUpdateData, NewUpdateData, registry.WithParams(updateParams))
	reg.Register(domain.AliasCopyData, NewCopyData, registry.WithParams(copyParams))
	reg.Register(domain.AliasFilterData, NewFilterData, registry.WithParams(filterParams))
	reg.Register(domain.AliasShowMessage, NewShowMessage, registry.WithParams(messageParams))
	reg.Register(domain.AliasShowDialog, NewShowDialog, registry.WithParams(dialogParams))

	reg.Register(domain.AliasChain, func(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
		return chain.FromDescription(ctx, desc, reg, surface, chainOpts...)
	})
}

// NewRegistry returns a registry holding the built-in actions.
func NewRegistry(chainOpts ...chain.Option) *registry.Registry {
	reg := registry.NewRegistry()
	RegisterDefaults(reg, chainOpts...)
	return reg
}
