/*
Package domain contains the core models of the Catena chain engine.

It defines the values that flow between chained actions (Task, Dataset, Result), the
declarative records attached to actions (Effect, ActionDescription) and the error
taxonomy shared by the resolver and the executor. The package is kept free of I/O and
persistence concerns; transports and storage live behind the interfaces in pkg/ports.

# Key Entities

  - Task: the input envelope handed to every action (input data + read-only references).
  - Dataset: a meta-object alias plus ordered rows.
  - Result: what a single action produced (kind, data, message, modified flag).
  - Effect: "this action affects object O in manner M", used for impact reporting.
  - ActionDescription: the in-memory structured description an action is built from.
*/
package domain
