package dsl

import "github.com/aretw0/catena/pkg/domain"

// ActionBuilder provides a fluent API for configuring a single step.
type ActionBuilder struct {
	desc domain.ActionDescription
}

// Action starts a step for any registered alias.
func Action(alias string) *ActionBuilder {
	return &ActionBuilder{desc: domain.ActionDescription{Alias: alias}}
}

// Update sets columns on every input row.
// A value starting with "=" copies another column of the same row.
func Update(values map[string]any) *ActionBuilder {
	return Action(domain.AliasUpdateData).Param("values", values)
}

// Copy duplicates the input rows under new IDs.
func Copy() *ActionBuilder {
	return Action(domain.AliasCopyData)
}

// Filter keeps the rows matching the JMESPath expression.
func Filter(where string) *ActionBuilder {
	return Action(domain.AliasFilterData).Param("where", where)
}

// ShowMessage returns a message. "{rows}" expands to the number of input rows.
func ShowMessage(text string) *ActionBuilder {
	return Action(domain.AliasShowMessage).Param("text", text)
}

// ShowDialog returns a dialog with a title and an optional text.
func ShowDialog(title, text string) *ActionBuilder {
	a := Action(domain.AliasShowDialog).Param("title", title)
	if text != "" {
		a.Param("text", text)
	}
	return a
}

// Param sets a parameter of the step.
func (a *ActionBuilder) Param(key string, value any) *ActionBuilder {
	if a.desc.Params == nil {
		a.desc.Params = make(map[string]any)
	}
	a.desc.Params[key] = value
	return a
}

// Name sets the display name of the step.
func (a *ActionBuilder) Name(name string) *ActionBuilder {
	a.desc.Name = name
	return a
}

// Object sets the meta-object the step works on.
func (a *ActionBuilder) Object(alias string) *ActionBuilder {
	a.desc.ObjectAlias = alias
	return a
}

// Rows sets the accepted number of input rows.
func (a *ActionBuilder) Rows(min, max int) *ActionBuilder {
	a.desc.InputRowsMin = domain.Ptr(min)
	a.desc.InputRowsMax = domain.Ptr(max)
	return a
}

// NeedsInput requires at least one input row.
func (a *ActionBuilder) NeedsInput() *ActionBuilder {
	a.desc.InputRowsMin = domain.Ptr(1)
	return a
}

// Effect declares an effect of the step.
func (a *ActionBuilder) Effect(object string, typ domain.EffectType) *ActionBuilder {
	a.desc.Effects = append(a.desc.Effects, domain.EffectDescription{ObjectAlias: object, Type: typ})
	return a
}

// Describe returns the underlying description.
func (a *ActionBuilder) Describe() domain.ActionDescription {
	return a.desc.Copy()
}
