package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// run is the mutable state carried from one step to the next.
type run struct {
	data       *domain.Dataset
	modified   bool
	lastResult *domain.Result
	selected   *domain.Result
	messages   messages
}

// Handle runs all actions in order and returns the aggregated result.
//
// With the single transaction mode every action runs in tx with autocommit disabled, and
// a failure leaves tx untouched for its owner to roll back. Otherwise every action gets
// a fresh transaction from the provider: it is committed after the action succeeded and
// rolled back if it failed; transactions of earlier actions are not compensated.
func (c *Chain) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	// Static checks come first: no transaction may be touched for a broken chain.
	if len(c.actions) == 0 {
		return nil, c.configError(domain.CodeEmptyChain, -1, domain.ErrEmptyChain, "")
	}
	if !c.useSingleTx && c.provider == nil {
		return nil, c.configError(domain.CodeInvalidDescription, -1, domain.ErrInvalidDescription,
			"use_single_transaction is disabled but no transaction provider is configured")
	}
	if task == nil {
		task = &domain.Task{}
	}

	ctx, span := c.tracer.Start(ctx, "chain.Handle", trace.WithAttributes(
		attribute.String("chain.name", c.Name()),
		attribute.Int("chain.steps", len(c.actions)),
		attribute.Bool("chain.single_transaction", c.useSingleTx),
	))
	defer span.End()

	start := time.Now()
	if c.hooks.OnChainStart != nil {
		c.hooks.OnChainStart(ctx, &domain.ChainEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventChainStart, Chain: c.Name()},
			Steps:     len(c.actions),
		})
	}

	result, err := c.execute(ctx, task, tx)

	if c.hooks.OnChainEnd != nil {
		evt := &domain.ChainEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventChainEnd, Chain: c.Name()},
			Steps:     len(c.actions),
			Duration:  time.Since(start),
			IsError:   err != nil,
		}
		if result != nil {
			evt.DataModified = result.DataModified
		}
		c.hooks.OnChainEnd(ctx, evt)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "chain failed", "chain", c.Name(), "err", err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("chain.data_modified", result.DataModified))
	c.logger.InfoContext(ctx, "chain executed",
		"chain", c.Name(),
		"steps", len(c.actions),
		"data_modified", result.DataModified,
		"duration", time.Since(start),
	)
	return result, nil
}

func (c *Chain) execute(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	resultIdx := c.ResultSourceIndex()
	state := &run{data: task.InputData}

	for idx, action := range c.actions {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("chain %q canceled before step %d: %w", c.Name(), idx, err)
		}

		stepTask := task.WithInputData(state.data)

		if c.shouldSkip(action, state.data) {
			c.logger.DebugContext(ctx, "chain step skipped: no input data",
				"chain", c.Name(), "index", idx, "action", action.Name())
			c.emitStepSkipped(ctx, idx, action)
			// Nothing new was produced: the slot keeps the last actual result.
			if idx == resultIdx {
				state.selected = state.lastResult
			}
			continue
		}

		res, err := c.step(ctx, idx, action, stepTask, tx)
		if err != nil {
			return nil, err
		}

		state.modified = state.modified || res.DataModified
		state.messages.add(res.Message)
		if !c.isFrozen(idx) && res.HasData() {
			state.data = res.Data
		}
		state.lastResult = res
		if idx == resultIdx {
			state.selected = res
		}
	}

	return c.aggregate(task, state), nil
}

// step runs a single action inside the transaction chosen for it.
func (c *Chain) step(ctx context.Context, idx int, action ports.Action, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	stepTx, owned, err := c.transactionFor(ctx, action, tx)
	if err != nil {
		return nil, &domain.StepError{Index: idx, Action: action.Name(), Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "chain.Step", trace.WithAttributes(
		attribute.Int("step.index", idx),
		attribute.String("step.action", action.Name()),
	))
	defer span.End()

	start := time.Now()
	if c.hooks.OnStepStart != nil {
		c.hooks.OnStepStart(ctx, &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventStepStart, Chain: c.Name()},
			Index:     idx,
			Action:    action.Name(),
		})
	}

	res, err := action.Handle(ctx, task, stepTx)
	if err == nil && owned && stepTx.Status() == domain.TxOpen {
		if cerr := stepTx.Commit(ctx); cerr != nil {
			err = fmt.Errorf("failed to commit step transaction %s: %w", stepTx.ID(), cerr)
		}
	}
	if err != nil && owned && stepTx.Status() == domain.TxOpen {
		if rerr := stepTx.Rollback(ctx); rerr != nil {
			c.logger.ErrorContext(ctx, "failed to roll back step transaction",
				"chain", c.Name(), "index", idx, "tx", stepTx.ID(), "err", rerr)
		}
	}

	if err == nil && res == nil {
		res = domain.NewEmptyResult(task)
	}

	if c.hooks.OnStepEnd != nil {
		evt := &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepEnd, Chain: c.Name()},
			Index:     idx,
			Action:    action.Name(),
			Duration:  time.Since(start),
			IsError:   err != nil,
		}
		if res != nil {
			evt.DataModified = res.DataModified
		}
		c.hooks.OnStepEnd(ctx, evt)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &domain.StepError{Index: idx, Action: action.Name(), Err: err}
	}

	c.logger.DebugContext(ctx, "chain step finished",
		"chain", c.Name(), "index", idx, "action", action.Name(),
		"kind", res.Kind, "modified", res.DataModified)
	return res, nil
}

// transactionFor selects the transaction of a step. owned is true when the chain
// started the transaction and is therefore responsible for finishing it.
func (c *Chain) transactionFor(ctx context.Context, action ports.Action, tx ports.Transaction) (ports.Transaction, bool, error) {
	if c.useSingleTx {
		// The action must not commit before the whole chain is done.
		action.SetAutocommit(false)
		return tx, false, nil
	}
	stepTx, err := c.provider.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to start step transaction: %w", err)
	}
	return stepTx, true, nil
}

func (c *Chain) shouldSkip(action ports.Action, data *domain.Dataset) bool {
	return c.skipIfEmpty && data.IsEmpty() && action.InputRowsMin() != 0
}

// isFrozen reports whether the output of step idx must no longer feed the next steps.
func (c *Chain) isFrozen(idx int) bool {
	return c.freezeIndex != nil && idx >= *c.freezeIndex
}

func (c *Chain) emitStepSkipped(ctx context.Context, idx int, action ports.Action) {
	if c.hooks.OnStepEnd == nil {
		return
	}
	c.hooks.OnStepEnd(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStepEnd, Chain: c.Name()},
		Index:     idx,
		Action:    action.Name(),
		Skipped:   true,
	})
}
