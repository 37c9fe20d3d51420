package chain

import (
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// Describe exports the chain back into a structured description.
// Child actions are exported through ports.Describer; actions that cannot describe
// themselves are represented by their name.
func (c *Chain) Describe() domain.ActionDescription {
	var d domain.ActionDescription
	if c.desc != nil {
		d = c.desc.Copy()
	} else {
		d = c.describeOptions()
	}
	d.Alias = domain.AliasChain

	d.Actions = make([]domain.ActionDescription, len(c.actions))
	for i, a := range c.actions {
		d.Actions[i] = DescribeAction(a)
	}
	return d
}

// DescribeAction exports any action into a description.
func DescribeAction(a ports.Action) domain.ActionDescription {
	if d, ok := a.(ports.Describer); ok {
		return d.Describe()
	}
	return domain.ActionDescription{Alias: a.Name()}
}

func (c *Chain) describeOptions() domain.ActionDescription {
	d := domain.ActionDescription{
		Name:                    c.name,
		Icon:                    c.icon,
		InputRowsMin:            c.inputRowsMin,
		InputRowsMax:            c.inputRowsMax,
		UseResultOfAction:       c.resultIndex,
		UseInputDataOfAction:    c.freezeIndex,
		SkipActionsIfInputEmpty: c.skipIfEmpty,
		ResultMessageText:       c.message,
	}
	if !c.object.IsZero() {
		d.ObjectAlias = c.object.AliasWithNamespace()
	}
	if !c.useSingleTx {
		d.UseSingleTransaction = domain.Ptr(false)
	}
	for _, e := range c.effects {
		d.Effects = append(d.Effects, domain.DescribeEffect(e))
	}
	return d
}
