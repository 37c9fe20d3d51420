/*
Package chain implements action chains: actions that run other actions one after another.

A Chain is resolved once from links (live actions or their descriptions), then executed
with Handle like any other action, which makes chains nestable. The executor threads
the output data of each step into the next one, applies the transaction mode of the
chain and aggregates the step results into a single result.

# Options

  - WithSingleTransaction(false): every step runs in its own transaction.
  - WithResultOf(i): the chain yields the result of step i instead of the last one.
  - WithInputFreezeAt(i): steps from i on all receive the input step i received.
  - WithSkipIfInputEmpty(true): steps requiring input rows are skipped on empty data.

Nesting is how multi-transaction workflows are expressed: an outer chain with
independent transactions per step may contain inner chains that are atomic.
*/
package chain
