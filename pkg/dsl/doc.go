/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically describing action chains.

It produces the same domain.ActionDescription values the YAML and JSON catalogs hold, so chains built in
code can be executed, exported or nested exactly like declared ones.

Example usage:

	package main

	import (
		"github.com/aretw0/catena"
		"github.com/aretw0/catena/pkg/domain"
		"github.com/aretw0/catena/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.Add("orders/close").
			Object("shop.Order").
			SkipIfInputEmpty().
			Then(
				dsl.Filter("status == 'open'"),
				dsl.Update(map[string]any{"status": "closed"}).NeedsInput(),
				dsl.ShowMessage("{rows} orders closed"),
			)

		catalog, err := b.Build()
		if err != nil {
			panic(err)
		}

		eng, _ := catena.New("", catena.WithCatalog(catalog))
		// ... eng.ExecuteByID(ctx, "orders/close", task, nil)
	}
*/
package dsl
