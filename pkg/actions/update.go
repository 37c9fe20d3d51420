package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
	"github.com/spf13/cast"
)

// UpdateParams configures core.UpdateData.
type UpdateParams struct {
	// Values assigns columns. A string starting with "=" copies another column
	// of the same row, e.g. {"shipped_at": "=updated_at"}.
	Values map[string]any `mapstructure:"values"`
	// Increment adds a number to numeric columns.
	Increment map[string]any `mapstructure:"increment"`
	// Message is attached to the result.
	Message string `mapstructure:"message"`
}

var updateParams = schema.Schema{
	"values":    schema.Optional(schema.Map()),
	"increment": schema.Optional(schema.Map()),
	"message":   schema.Optional(schema.String()),
}

// UpdateData changes columns of every input row and writes the rows back.
type UpdateData struct {
	Base
	params UpdateParams
}

var (
	_ ports.Action        = (*UpdateData)(nil)
	_ ports.SurfaceBinder = (*UpdateData)(nil)
	_ ports.Describer     = (*UpdateData)(nil)
)

// NewUpdateData creates the action from its description.
func NewUpdateData(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	var p UpdateParams
	if err := registry.DecodeParams(desc.Params, &p); err != nil {
		return nil, err
	}
	if len(p.Values) == 0 && len(p.Increment) == 0 {
		return nil, fmt.Errorf("%s needs values or increment", domain.AliasUpdateData)
	}
	for col, v := range p.Increment {
		if _, err := cast.ToFloat64E(v); err != nil {
			return nil, fmt.Errorf("increment of %s is not a number: %w", col, err)
		}
	}

	return &UpdateData{
		Base: newBase(desc, surface, defaults{
			name:         "Update data",
			icon:         "pencil",
			inputRowsMin: 1,
			effect:       domain.EffectUpdate,
			capabilities: []domain.Capability{domain.CapabilityModifiesData},
		}),
		params: p,
	}, nil
}

func (a *UpdateData) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	task = taskOrEmpty(task)
	if err := a.checkInput(task.InputData); err != nil {
		return nil, err
	}
	object, err := a.targetObject(task)
	if err != nil {
		return nil, err
	}

	out := task.InputData.Clone()
	if out == nil {
		out = domain.NewDataset(object)
	}
	out.Object = object
	for i, row := range out.Rows {
		if err := a.apply(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	if err := a.write(ctx, tx, object, out.Rows); err != nil {
		return nil, err
	}

	res := domain.NewDataResult(task, out, out.Len() > 0)
	res.Message = a.params.Message
	return res, nil
}

func (a *UpdateData) apply(row domain.Row) error {
	// References read the row as it was before this update.
	orig := row.Clone()
	for col, v := range a.params.Values {
		if ref, ok := v.(string); ok && strings.HasPrefix(ref, "=") {
			src := strings.TrimPrefix(ref, "=")
			val, exists := orig[src]
			if !exists {
				return fmt.Errorf("column %q referenced by %q does not exist", src, col)
			}
			row[col] = val
			continue
		}
		row[col] = v
	}
	for col, inc := range a.params.Increment {
		cur, err := cast.ToFloat64E(orDefault(row[col], 0))
		if err != nil {
			return fmt.Errorf("column %q is not numeric: %w", col, err)
		}
		row[col] = cur + cast.ToFloat64(inc)
	}
	return nil
}

func orDefault(v, def any) any {
	if v == nil {
		return def
	}
	return v
}
