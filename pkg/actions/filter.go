package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
	"github.com/jmespath/go-jmespath"
	"github.com/spf13/cast"
)

// FilterParams configures core.FilterData.
type FilterParams struct {
	// Where is a JMESPath expression evaluated against every row,
	// e.g. "status == 'new' && total > `100`". Rows yielding a truthy value are kept.
	Where string `mapstructure:"where"`
	// Limit caps the number of rows kept. Zero keeps all.
	Limit int `mapstructure:"limit"`
}

var filterParams = schema.Schema{
	"where": schema.String(),
	"limit": schema.Optional(schema.Int()),
}

// FilterData narrows the input rows down. It never writes.
type FilterData struct {
	Base
	params FilterParams
	expr   *jmespath.JMESPath
}

var (
	_ ports.Action        = (*FilterData)(nil)
	_ ports.SurfaceBinder = (*FilterData)(nil)
	_ ports.Describer     = (*FilterData)(nil)
)

// NewFilterData creates the action from its description. The expression is compiled
// once, so syntax errors surface when the chain is built.
func NewFilterData(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
	var p FilterParams
	if err := registry.DecodeParams(desc.Params, &p); err != nil {
		return nil, err
	}
	if p.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", p.Limit)
	}
	expr, err := jmespath.Compile(p.Where)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression %q: %w", p.Where, err)
	}

	return &FilterData{
		Base: newBase(desc, surface, defaults{
			name: "Filter",
			icon: "filter",
		}),
		params: p,
		expr:   expr,
	}, nil
}

func (a *FilterData) Handle(ctx context.Context, task *domain.Task, tx ports.Transaction) (*domain.Result, error) {
	task = taskOrEmpty(task)
	if err := a.checkInput(task.InputData); err != nil {
		return nil, err
	}

	object := ""
	if task.InputData != nil {
		object = task.InputData.Object
	}
	out := domain.NewDataset(object)

	for i, row := range rowsOf(task.InputData.Clone()) {
		if a.params.Limit > 0 && out.Len() >= a.params.Limit {
			break
		}
		v, err := a.expr.Search(normalize(map[string]any(row)))
		if err != nil {
			return nil, fmt.Errorf("filter failed on row %d: %w", i, err)
		}
		if truthy(v) {
			out.Rows = append(out.Rows, row)
		}
	}
	return domain.NewDataResult(task, out, false), nil
}

// normalize converts every number to float64, the only numeric type JMESPath compares.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalize(e)
		}
		return m
	case domain.Row:
		return normalize(map[string]any(t))
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalize(e)
		}
		return s
	case json.Number, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return cast.ToFloat64(t)
	default:
		return v
	}
}

// truthy follows the JMESPath notion of false: false, null, "", [] and {}.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func rowsOf(d *domain.Dataset) []domain.Row {
	if d == nil {
		return nil
	}
	return d.Rows
}
