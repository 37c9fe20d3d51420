package graph

import (
	"context"
	"sync"

	"github.com/aretw0/catena/pkg/domain"
)

// Recorder collects the step outcomes of the outermost chain of a run.
// Steps of nested chains are ignored.
type Recorder struct {
	mu      sync.Mutex
	depth   int
	overlay Overlay
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hooks returns the lifecycle hooks feeding the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChainStart: func(_ context.Context, _ *domain.ChainEvent) {
			r.mu.Lock()
			r.depth++
			r.mu.Unlock()
		},
		OnChainEnd: func(_ context.Context, _ *domain.ChainEvent) {
			r.mu.Lock()
			r.depth--
			r.mu.Unlock()
		},
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.depth != 1 {
				return
			}
			switch {
			case e.Skipped:
				r.overlay.Skipped = append(r.overlay.Skipped, e.Index)
			case e.IsError:
				r.overlay.Failed = domain.Ptr(e.Index)
			default:
				r.overlay.Executed = append(r.overlay.Executed, e.Index)
			}
		},
	}
}

// Overlay returns a copy of what was recorded so far.
func (r *Recorder) Overlay() *Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := Overlay{
		Executed: append([]int(nil), r.overlay.Executed...),
		Skipped:  append([]int(nil), r.overlay.Skipped...),
	}
	if r.overlay.Failed != nil {
		o.Failed = domain.Ptr(*r.overlay.Failed)
	}
	return &o
}
