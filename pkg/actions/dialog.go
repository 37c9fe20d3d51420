package actions

import (
	"context"
	"fmt"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
)

// DialogParams configures core.ShowDialog.
type DialogParams struct {
	Title string `mapstructure:"title"`
	Text  string `mapstructure:"text"`
}

var dialogParams = schema.Schema{
	"title": schema.String(),
	"text":  schema.Optional(schema.String()),
}

// ShowDialog opens a dialog surface. Chains refuse it: nobody would see the dialog.
type ShowDialog struct {
	Base
	params DialogParams
}

var (
	_ ports.Action        = (*ShowDialog)(nil)
	_ ports.SurfaceBinder = (*ShowDialog)(nil)
	_ ports.Describer     = (*ShowDialog)(nil)
)

// NewShowDialog creates the action from its description.
func NewShowDialog(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	var p DialogParams
	if err := registry.DecodeParams(desc.Params, &p); err != nil {
		return nil, err
	}
	return &ShowDialog{
		Base: newBase(desc, surface, defaults{
			name:         p.Title,
			icon:         "window",
			capabilities: []domain.Capability{domain.CapabilityRendersSurface},
		}),
		params: p,
	}, nil
}

// Handle describes the dialog to open. Rendering it is up to the caller's surface.
func (a *ShowDialog) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	task = taskOrEmpty(task)
	if a.params.Text == "" {
		return domain.NewMessageResult(task, a.params.Title), nil
	}
	return domain.NewMessageResult(task, fmt.Sprintf("%s\n%s", a.params.Title, a.params.Text)), nil
}
