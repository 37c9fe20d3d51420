package process

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
)

// Alias is the action alias of RunCommand.
const Alias = "process.Run"

// Params configures process.Run.
type Params struct {
	// Command names an allow-listed command.
	Command string `mapstructure:"command"`
	// Env is passed to the process as CATENA_PARAM_<KEY> variables.
	Env map[string]any `mapstructure:"env"`
}

var params = schema.Schema{
	"command": schema.String(),
	"env":     schema.Optional(schema.Map()),
}

// RunCommand pipes the input rows through an external command.
// A JSON array printed by the command becomes the output data, anything else a message.
// The command writes nothing through the transaction.
type RunCommand struct {
	runner  *Runner
	desc    domain.ActionDescription
	params  Params
	object  string
	name    string
	icon    string
	min     int
	max     int
	effects []domain.Effect
	surface *domain.Surface
}

var (
	_ ports.Action        = (*RunCommand)(nil)
	_ ports.SurfaceBinder = (*RunCommand)(nil)
	_ ports.Describer     = (*RunCommand)(nil)
)

// Constructor returns the registry constructor of process.Run bound to r.
// Unknown commands are rejected when the chain is built.
func (r *Runner) Constructor() registry.Constructor {
	return func(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
		var p Params
		if err := registry.DecodeParams(desc.Params, &p); err != nil {
			return nil, err
		}
		if !r.Has(p.Command) {
			return nil, fmt.Errorf("command not registered: %q (allowed: %v)", p.Command, r.Names())
		}

		a := &RunCommand{
			runner:  r,
			desc:    desc.Copy(),
			params:  p,
			object:  desc.ObjectAlias,
			name:    p.Command,
			icon:    "terminal",
			max:     domain.UnlimitedRows,
			surface: surface,
		}
		if desc.Name != "" {
			a.name = desc.Name
		}
		if desc.Icon != "" {
			a.icon = desc.Icon
		}
		if desc.InputRowsMin != nil {
			a.min = *desc.InputRowsMin
		}
		if desc.InputRowsMax != nil {
			a.max = *desc.InputRowsMax
		}
		for _, e := range desc.Effects {
			a.effects = append(a.effects, e.Effect())
		}
		return a, nil
	}
}

// RegisterAction adds process.Run to reg.
func (r *Runner) RegisterAction(reg *registry.Registry) {
	reg.Register(Alias, r.Constructor(), registry.WithParams(params))
}

// ParamSchema returns the params accepted by process.Run.
func ParamSchema() schema.Schema {
	return params
}

func (a *RunCommand) Name() string                           { return a.name }
func (a *RunCommand) Icon() string                           { return a.icon }
func (a *RunCommand) InputRowsMin() int                      { return a.min }
func (a *RunCommand) InputRowsMax() int                      { return a.max }
func (a *RunCommand) Undoable() bool                         { return false }
func (a *RunCommand) Effects() []domain.Effect               { return slices.Clone(a.effects) }
func (a *RunCommand) HasCapability(c domain.Capability) bool { return false }
func (a *RunCommand) SetAutocommit(bool)                     {}
func (a *RunCommand) BindSurface(s *domain.Surface)          { a.surface = s }
func (a *RunCommand) Describe() domain.ActionDescription     { return a.desc.Copy() }

func (a *RunCommand) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	if task == nil {
		task = &domain.Task{}
	}
	n := task.InputData.Len()
	if n < a.min {
		return nil, fmt.Errorf("%s requires at least %d input rows, got %d", a.name, a.min, n)
	}
	if a.max != domain.UnlimitedRows && n > a.max {
		return nil, fmt.Errorf("%s accepts at most %d input rows, got %d", a.name, a.max, n)
	}

	var rows []domain.Row
	object := a.object
	if task.InputData != nil {
		rows = task.InputData.Rows
		if object == "" {
			object = task.InputData.Object
		}
	}

	out, err := a.runner.Run(ctx, a.params.Command, a.params.Env, rows)
	if err != nil {
		return nil, err
	}
	switch {
	case out.Rows != nil:
		return domain.NewDataResult(task, domain.NewDataset(object, out.Rows...), false), nil
	case out.Text != "":
		return domain.NewMessageResult(task, out.Text), nil
	default:
		return domain.NewEmptyResult(task), nil
	}
}
