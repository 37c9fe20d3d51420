package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventChainStart EventType = "chain_start"
	EventChainEnd   EventType = "chain_end"
	EventStepStart  EventType = "step_start"
	EventStepEnd    EventType = "step_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Chain     string    `json:"chain"`
}

// ChainEvent represents the start or the end of a chain execution.
type ChainEvent struct {
	EventBase
	Steps        int           `json:"steps"`
	DataModified bool          `json:"data_modified,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	IsError      bool          `json:"is_error,omitempty"`
}

// StepEvent represents the start or the end of a single step.
type StepEvent struct {
	EventBase
	Index        int           `json:"index"`
	Action       string        `json:"action"`
	Skipped      bool          `json:"skipped,omitempty"`
	DataModified bool          `json:"data_modified,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	IsError      bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for chain observability.
type LifecycleHooks struct {
	OnChainStart func(context.Context, *ChainEvent)
	OnChainEnd   func(context.Context, *ChainEvent)
	OnStepStart  func(context.Context, *StepEvent)
	OnStepEnd    func(context.Context, *StepEvent)
}

// Merge returns hooks calling h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnChainStart: mergeHook(h.OnChainStart, other.OnChainStart),
		OnChainEnd:   mergeHook(h.OnChainEnd, other.OnChainEnd),
		OnStepStart:  mergeHook(h.OnStepStart, other.OnStepStart),
		OnStepEnd:    mergeHook(h.OnStepEnd, other.OnStepEnd),
	}
}

func mergeHook[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
