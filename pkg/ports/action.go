package ports

import (
	"context"

	"github.com/aretw0/catena/pkg/domain"
)

// Action is a single named operation that can be chained.
type Action interface {
	// Name returns the human readable name of the action.
	Name() string
	// Icon returns the icon identifier, or an empty string.
	Icon() string
	// InputRowsMin returns the minimum number of input rows the action accepts.
	InputRowsMin() int
	// InputRowsMax returns the maximum number of input rows, or domain.UnlimitedRows.
	InputRowsMax() int
	// Undoable reports whether the action can be reverted by an undo operation.
	Undoable() bool
	// Effects returns the objects the action affects, independent of any execution.
	Effects() []domain.Effect
	// HasCapability reports whether the action exposes the given trait.
	HasCapability(c domain.Capability) bool
	// SetAutocommit controls whether the action commits the transaction it runs in.
	SetAutocommit(enabled bool)
	// Handle runs the action. It blocks until the action succeeded or failed.
	Handle(ctx context.Context, task *domain.Task, tx Transaction) (*domain.Result, error)
}

// SurfaceBinder is implemented by actions that can be bound to a triggering surface.
type SurfaceBinder interface {
	BindSurface(s *domain.Surface)
}

// Describer is implemented by actions that can export themselves back into a description.
type Describer interface {
	Describe() domain.ActionDescription
}

// ActionFactory instantiates actions from descriptions.
type ActionFactory interface {
	// Create builds the action described by desc. Surface may be nil.
	// Unknown aliases must yield an error wrapping domain.ErrUnknownAction.
	Create(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (Action, error)
}
