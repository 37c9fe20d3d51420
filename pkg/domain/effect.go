package domain

// EffectType describes the nature of a modification.
type EffectType string

const (
	EffectCreate EffectType = "create"
	EffectUpdate EffectType = "update"
	EffectDelete EffectType = "delete"
)

// Effect declares that an action affects a meta-object in a certain way.
// Effects are static: they are known before and independent of any execution.
type Effect struct {
	Object MetaObject `json:"object" yaml:"object"`
	Type   EffectType `json:"type" yaml:"type"`
	Name   string     `json:"name,omitempty" yaml:"name,omitempty"`
}
