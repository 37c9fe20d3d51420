package domain

// Aliases of the built-in actions.
const (
	AliasChain       = "core.ActionChain"
	AliasUpdateData  = "core.UpdateData"
	AliasCopyData    = "core.CopyData"
	AliasFilterData  = "core.FilterData"
	AliasShowMessage = "core.ShowMessage"
	AliasShowDialog  = "core.ShowDialog"
)

// Field constants for mapstructure and JSON standardization.
const (
	// KeyObjectAlias is the description key holding the target meta-object.
	KeyObjectAlias = "object_alias"

	// KeyActions is the description key holding the links of a chain.
	KeyActions = "actions"

	// UnlimitedRows marks an action without an upper input row limit.
	UnlimitedRows = -1
)
