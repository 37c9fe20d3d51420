/*
Package ports defines the interfaces the Catena chain engine consumes.

These interfaces decouple the chain executor from concrete actions, data backends
and configuration sources, so the same chain can run against memory, Redis or SQL.

# Key Interfaces

  - Action: a single named operation; a chain is an Action too, which enables nesting.
  - ActionFactory: instantiates actions from their structured descriptions.
  - TransactionProvider / Transaction: unit-of-work handles passed explicitly to actions.
  - CatalogLoader: source of named chain descriptions (memory, Loam).
  - DistributedLocker: optional cross-replica guard around chain executions.
*/
package ports
