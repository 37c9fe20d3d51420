/*
Package catena runs action chains: ordered lists of independently defined actions executed in
sequence against a shared or per-step transaction, with data threaded from one action to the next and
a single aggregated result at the end.

# Concept

An action is anything satisfying ports.Action. A chain is itself an action, so chains nest. Chains are
usually described declaratively (YAML, JSON or Markdown frontmatter) and instantiated through the action
registry, which knows the built-in actions (core.UpdateData, core.CopyData, core.FilterData,
core.ShowMessage, core.ShowDialog and core.ActionChain) plus any custom ones.

# Key Features

  - Single transaction mode: every step shares the caller's transaction, nothing is committed midway.
  - Multi transaction mode: every step runs in its own transaction, committed right after the step.
  - Data threading with an optional freeze point and a selectable result step.
  - Skipping of steps that need input once the data ran dry.
  - Effect merging, export back into a description, lifecycle hooks and OpenTelemetry spans.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/catena"
		"github.com/aretw0/catena/pkg/domain"
	)

	func main() {
		// Reads chain descriptions from ./chains
		eng, err := catena.New("./chains")
		if err != nil {
			log.Fatal(err)
		}

		input := domain.NewDataset("shop.Order", domain.Row{"id": "42", "status": "open"})
		res, err := eng.ExecuteByID(context.Background(), "orders/close", domain.NewTask(input), nil)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Message, res.DataModified)
	}
*/
package catena
