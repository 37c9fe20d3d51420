package actions

import (
	"context"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
	"github.com/google/uuid"
)

// CopyParams configures core.CopyData.
type CopyParams struct {
	// IDColumn receives a fresh UUID in every copy. Defaults to "id".
	IDColumn string `mapstructure:"id_column"`
	// Values overrides columns of the copies.
	Values map[string]any `mapstructure:"values"`
}

var copyParams = schema.Schema{
	"id_column": schema.Optional(schema.String()),
	"values":    schema.Optional(schema.Map()),
}

// CopyData duplicates every input row under a new identifier.
// The copies are the output, so following actions work on them.
type CopyData struct {
	Base
	params CopyParams
}

var (
	_ ports.Action        = (*CopyData)(nil)
	_ ports.SurfaceBinder = (*CopyData)(nil)
	_ ports.Describer     = (*CopyData)(nil)
)

// NewCopyData creates the action from its description.
func NewCopyData(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	p := CopyParams{IDColumn: "id"}
	if err := registry.DecodeParams(desc.Params, &p); err != nil {
		return nil, err
	}
	return &CopyData{
		Base: newBase(desc, surface, defaults{
			name:         "Copy",
			icon:         "copy",
			inputRowsMin: 1,
			effect:       domain.EffectCreate,
			capabilities: []domain.Capability{domain.CapabilityModifiesData},
		}),
		params: p,
	}, nil
}

func (a *CopyData) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	task = taskOrEmpty(task)
	if err := a.checkInput(task.InputData); err != nil {
		return nil, err
	}
	object, err := a.targetObject(task)
	if err != nil {
		return nil, err
	}

	copies := domain.NewDataset(object)
	for _, row := range rowsOf(task.InputData.Clone()) {
		for col, v := range a.params.Values {
			row[col] = v
		}
		row[a.params.IDColumn] = uuid.NewString()
		copies.Rows = append(copies.Rows, row)
	}

	if err := a.write(ctx, tx, object, copies.Rows); err != nil {
		return nil, err
	}
	return domain.NewDataResult(task, copies, copies.Len() > 0), nil
}
