// Package schema reads, writes and validates action descriptions.
//
// Descriptions are usually kept as YAML or JSON documents:
//
//	alias: core.ActionChain
//	object_alias: shop.Order
//	use_result_of_action: 0
//	actions:
//	  - alias: core.UpdateData
//	    params:
//	      values: {status: shipped}
//	  - alias: core.ShowMessage
//	    params:
//	      text: Order shipped
//
// Parse turns such a document into a domain.ActionDescription, DecodeDescription does
// the same for generic maps (e.g. a chain link given inline) and ValidateDescription
// checks the structure before any action is built.
//
// Actions declare the parameters they accept with a Schema:
//
//	params := schema.Schema{
//	    "values": schema.Map(),
//	    "limit":  schema.Optional(schema.Int()),
//	}
//
//	if err := schema.Validate(params, desc.Params); err != nil {
//	    // err is an *AggregateError listing every failing key
//	}
package schema
