package actions

import (
	"context"
	"strconv"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
)

// MessageParams configures core.ShowMessage.
type MessageParams struct {
	// Text may contain {rows}, replaced by the number of input rows.
	Text string `mapstructure:"text"`
}

var messageParams = schema.Schema{
	"text": schema.String(),
}

// ShowMessage returns a text for the user. It passes no data on.
type ShowMessage struct {
	Base
	params MessageParams
}

var (
	_ ports.Action        = (*ShowMessage)(nil)
	_ ports.SurfaceBinder = (*ShowMessage)(nil)
	_ ports.Describer     = (*ShowMessage)(nil)
)

// NewShowMessage creates the action from its description.
func NewShowMessage(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	var p MessageParams
	if err := registry.DecodeParams(desc.Params, &p); err != nil {
		return nil, err
	}
	return &ShowMessage{
		Base: newBase(desc, surface, defaults{
			name: "Message",
			icon: "info",
		}),
		params: p,
	}, nil
}

func (a *ShowMessage) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	task = taskOrEmpty(task)
	if err := a.checkInput(task.InputData); err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(a.params.Text, "{rows}", strconv.Itoa(task.InputData.Len()))
	return domain.NewMessageResult(task, text), nil
}
