package domain

// Capability is a trait an action may expose to callers deciding how to run it.
type Capability string

const (
	// CapabilityRendersSurface marks actions that open a visual surface (dialogs, forms).
	// Such actions are never allowed as chain members.
	CapabilityRendersSurface Capability = "renders_surface"

	// CapabilityModifiesData marks actions that write to a data backend.
	CapabilityModifiesData Capability = "modifies_data"

	// CapabilityCallsOtherActions marks composite actions such as chains.
	CapabilityCallsOtherActions Capability = "calls_other_actions"
)
