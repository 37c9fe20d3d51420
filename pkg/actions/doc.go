// Package actions provides the built-in actions and registers them with a registry.
//
//	reg := registry.NewRegistry()
//	actions.RegisterDefaults(reg, chain.WithLogger(logger))
//
// Every built-in is configured by its description: the object it works on, optional
// effects and row limits, and action specific params validated on creation.
package actions
