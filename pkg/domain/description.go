package domain

// ActionDescription is the structured, in-memory description an action is built from.
// Chain options are only meaningful when Alias is AliasChain.
type ActionDescription struct {
	Alias        string              `json:"alias" yaml:"alias" mapstructure:"alias" validate:"required"`
	ObjectAlias  string              `json:"object_alias,omitempty" yaml:"object_alias,omitempty" mapstructure:"object_alias"`
	Name         string              `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Icon         string              `json:"icon,omitempty" yaml:"icon,omitempty" mapstructure:"icon"`
	InputRowsMin *int                `json:"input_rows_min,omitempty" yaml:"input_rows_min,omitempty" mapstructure:"input_rows_min" validate:"omitempty,min=0"`
	InputRowsMax *int                `json:"input_rows_max,omitempty" yaml:"input_rows_max,omitempty" mapstructure:"input_rows_max" validate:"omitempty,min=-1"`
	Effects      []EffectDescription `json:"effects,omitempty" yaml:"effects,omitempty" mapstructure:"effects" validate:"dive"`
	Params       map[string]any      `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`

	Actions                 []ActionDescription `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions" validate:"dive"`
	UseSingleTransaction    *bool               `json:"use_single_transaction,omitempty" yaml:"use_single_transaction,omitempty" mapstructure:"use_single_transaction"`
	UseResultOfAction       *int                `json:"use_result_of_action,omitempty" yaml:"use_result_of_action,omitempty" mapstructure:"use_result_of_action" validate:"omitempty,min=0"`
	UseInputDataOfAction    *int                `json:"use_input_data_of_action,omitempty" yaml:"use_input_data_of_action,omitempty" mapstructure:"use_input_data_of_action" validate:"omitempty,min=0"`
	SkipActionsIfInputEmpty bool                `json:"skip_actions_if_input_empty,omitempty" yaml:"skip_actions_if_input_empty,omitempty" mapstructure:"skip_actions_if_input_empty"`
	ResultMessageText       *string             `json:"result_message_text,omitempty" yaml:"result_message_text,omitempty" mapstructure:"result_message_text"`
}

// EffectDescription is the declarative form of an Effect.
type EffectDescription struct {
	ObjectAlias string     `json:"object_alias" yaml:"object_alias" mapstructure:"object_alias" validate:"required"`
	Type        EffectType `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type" validate:"omitempty,oneof=create update delete"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
}

// Effect converts the description into an Effect. The type defaults to update.
func (d EffectDescription) Effect() Effect {
	t := d.Type
	if t == "" {
		t = EffectUpdate
	}
	return Effect{Object: ParseObject(d.ObjectAlias), Type: t, Name: d.Name}
}

// DescribeEffect converts an Effect back into its declarative form.
func DescribeEffect(e Effect) EffectDescription {
	return EffectDescription{ObjectAlias: e.Object.AliasWithNamespace(), Type: e.Type, Name: e.Name}
}

// IsChain reports whether the description defines an action chain.
func (d ActionDescription) IsChain() bool {
	return d.Alias == AliasChain
}

// Copy returns a copy that can be modified without touching the receiver's
// top level fields or nested action list.
func (d ActionDescription) Copy() ActionDescription {
	c := d
	if d.Actions != nil {
		c.Actions = make([]ActionDescription, len(d.Actions))
		for i, a := range d.Actions {
			c.Actions[i] = a.Copy()
		}
	}
	if d.Effects != nil {
		c.Effects = append([]EffectDescription(nil), d.Effects...)
	}
	if d.Params != nil {
		c.Params = make(map[string]any, len(d.Params))
		for k, v := range d.Params {
			c.Params[k] = v
		}
	}
	return c
}

// Ptr returns a pointer to v. Handy for the optional fields of ActionDescription.
func Ptr[T any](v T) *T {
	return &v
}
