package dsl

import (
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/schema"
)

// Step is anything that produces an action description.
type Step interface {
	Describe() domain.ActionDescription
}

// ChainBuilder provides a fluent API for configuring a chain.
type ChainBuilder struct {
	desc domain.ActionDescription
}

// Chain starts a new chain description. The name is used as the display name.
func Chain(name string) *ChainBuilder {
	return &ChainBuilder{
		desc: domain.ActionDescription{
			Alias: domain.AliasChain,
			Name:  name,
		},
	}
}

// Name sets the display name of the chain.
func (c *ChainBuilder) Name(name string) *ChainBuilder {
	c.desc.Name = name
	return c
}

// Icon sets the icon of the chain.
func (c *ChainBuilder) Icon(icon string) *ChainBuilder {
	c.desc.Icon = icon
	return c
}

// Object sets the meta-object the chain works on, e.g. "shop.Order".
func (c *ChainBuilder) Object(alias string) *ChainBuilder {
	c.desc.ObjectAlias = alias
	return c
}

// Rows sets the accepted number of input rows. Use domain.UnlimitedRows for no upper bound.
func (c *ChainBuilder) Rows(min, max int) *ChainBuilder {
	c.desc.InputRowsMin = domain.Ptr(min)
	c.desc.InputRowsMax = domain.Ptr(max)
	return c
}

// SingleTransaction runs every step in the caller's transaction (the default).
func (c *ChainBuilder) SingleTransaction() *ChainBuilder {
	c.desc.UseSingleTransaction = domain.Ptr(true)
	return c
}

// MultiTransaction runs every step in its own transaction.
func (c *ChainBuilder) MultiTransaction() *ChainBuilder {
	c.desc.UseSingleTransaction = domain.Ptr(false)
	return c
}

// ResultOf selects the step whose result becomes the chain result.
func (c *ChainBuilder) ResultOf(index int) *ChainBuilder {
	c.desc.UseResultOfAction = domain.Ptr(index)
	return c
}

// FreezeInputAt stops threading data once the step at index is reached.
func (c *ChainBuilder) FreezeInputAt(index int) *ChainBuilder {
	c.desc.UseInputDataOfAction = domain.Ptr(index)
	return c
}

// SkipIfInputEmpty skips steps that need input once the data ran dry.
func (c *ChainBuilder) SkipIfInputEmpty() *ChainBuilder {
	c.desc.SkipActionsIfInputEmpty = true
	return c
}

// Message sets the result message, replacing the collected step messages.
func (c *ChainBuilder) Message(text string) *ChainBuilder {
	c.desc.ResultMessageText = domain.Ptr(text)
	return c
}

// Effect declares an effect of the chain on top of those of its steps.
func (c *ChainBuilder) Effect(object string, typ domain.EffectType) *ChainBuilder {
	c.desc.Effects = append(c.desc.Effects, domain.EffectDescription{ObjectAlias: object, Type: typ})
	return c
}

// Then appends steps to the chain.
func (c *ChainBuilder) Then(steps ...Step) *ChainBuilder {
	for _, s := range steps {
		c.desc.Actions = append(c.desc.Actions, s.Describe())
	}
	return c
}

// Describe returns the description without validating it, so a chain can be nested in another.
func (c *ChainBuilder) Describe() domain.ActionDescription {
	return c.desc.Copy()
}

// Build validates the chain and returns its description.
func (c *ChainBuilder) Build() (domain.ActionDescription, error) {
	desc := c.Describe()
	if err := schema.ValidateDescription(desc); err != nil {
		return domain.ActionDescription{}, err
	}
	return desc, nil
}
