package actions_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/catena/pkg/actions"
	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func create(t *testing.T, desc domain.ActionDescription) ports.Action {
	t.Helper()
	a, err := actions.NewRegistry().Create(context.Background(), desc, nil)
	require.NoError(t, err)
	return a
}

func orders() *domain.Dataset {
	return domain.NewDataset("shop.Order",
		domain.Row{"id": "1", "status": "new", "total": 120},
		domain.Row{"id": "2", "status": "paid", "total": 80},
		domain.Row{"id": "3", "status": "new", "total": json.Number("15")},
	)
}

func TestUpdateData_WritesAndCommits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	a := create(t, domain.ActionDescription{
		Alias: domain.AliasUpdateData,
		Params: map[string]any{
			"values":    map[string]any{"status": "shipped", "previous": "=status"},
			"increment": map[string]any{"total": 5},
			"message":   "Orders shipped",
		},
	})
	assert.True(t, a.HasCapability(domain.CapabilityModifiesData))
	assert.Equal(t, 1, a.InputRowsMin())

	input := orders()
	res, err := a.Handle(ctx, domain.NewTask(input), tx)
	require.NoError(t, err)

	assert.True(t, res.DataModified)
	assert.Equal(t, "Orders shipped", res.Message)
	require.Equal(t, 3, res.Data.Len())
	assert.Equal(t, "shipped", res.Data.Rows[0]["status"])
	assert.Equal(t, "new", res.Data.Rows[0]["previous"])
	assert.Equal(t, 125.0, res.Data.Rows[0]["total"])
	assert.Equal(t, 20.0, res.Data.Rows[2]["total"])
	assert.Equal(t, "new", input.Rows[0]["status"], "input rows must not be modified")

	// Autocommit is on by default.
	assert.Equal(t, domain.TxCommitted, tx.Status())
	rows, err := store.ReadRows(ctx, "shop.Order")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestUpdateData_NoAutocommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasUpdateData,
		Params: map[string]any{"values": map[string]any{"status": "x"}},
	})
	a.SetAutocommit(false)

	_, err = a.Handle(ctx, domain.NewTask(orders()), tx)
	require.NoError(t, err)
	assert.Equal(t, domain.TxOpen, tx.Status())

	rows, err := store.ReadRows(ctx, "shop.Order")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateData_Errors(t *testing.T) {
	ctx := context.Background()
	reg := actions.NewRegistry()

	_, err := reg.Create(ctx, domain.ActionDescription{Alias: domain.AliasUpdateData}, nil)
	assert.Error(t, err, "values or increment are required")

	_, err = reg.Create(ctx, domain.ActionDescription{
		Alias:  domain.AliasUpdateData,
		Params: map[string]any{"increment": map[string]any{"total": "many"}},
	}, nil)
	assert.Error(t, err)

	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasUpdateData,
		Params: map[string]any{"values": map[string]any{"a": "=missing"}},
	})
	store := memory.NewStore()
	tx, _ := store.Begin(ctx)
	_, err = a.Handle(ctx, domain.NewTask(orders()), tx)
	assert.ErrorContains(t, err, "missing")

	_, err = a.Handle(ctx, domain.NewTask(nil), tx)
	assert.ErrorContains(t, err, "at least 1 input rows")

	ok := create(t, domain.ActionDescription{
		Alias:  domain.AliasUpdateData,
		Params: map[string]any{"values": map[string]any{"a": 1}},
	})
	_, err = ok.Handle(ctx, domain.NewTask(orders()), nil)
	assert.ErrorContains(t, err, "requires a transaction")
}

func TestUpdateData_ObjectAndEffects(t *testing.T) {
	a := create(t, domain.ActionDescription{
		Alias:       domain.AliasUpdateData,
		ObjectAlias: "shop.Order",
		Params:      map[string]any{"values": map[string]any{"a": 1}},
	})
	require.Len(t, a.Effects(), 1)
	assert.Equal(t, domain.EffectUpdate, a.Effects()[0].Type)
	assert.Equal(t, "shop.Order", a.Effects()[0].Object.AliasWithNamespace())

	declared := create(t, domain.ActionDescription{
		Alias:   domain.AliasUpdateData,
		Effects: []domain.EffectDescription{{ObjectAlias: "shop.Invoice", Type: domain.EffectCreate}},
		Params:  map[string]any{"values": map[string]any{"a": 1}},
	})
	require.Len(t, declared.Effects(), 1)
	assert.Equal(t, "Invoice", declared.Effects()[0].Object.Alias)
}

func TestCopyData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	a := create(t, domain.ActionDescription{
		Alias:       domain.AliasCopyData,
		ObjectAlias: "shop.Order",
		Params:      map[string]any{"values": map[string]any{"status": "draft"}},
	})
	require.Len(t, a.Effects(), 1)
	assert.Equal(t, domain.EffectCreate, a.Effects()[0].Type)

	res, err := a.Handle(ctx, domain.NewTask(orders()), tx)
	require.NoError(t, err)
	require.Equal(t, 3, res.Data.Len())
	assert.True(t, res.DataModified)

	seen := map[any]bool{}
	for _, row := range res.Data.Rows {
		assert.Equal(t, "draft", row["status"])
		assert.NotContains(t, []any{"1", "2", "3"}, row["id"])
		seen[row["id"]] = true
	}
	assert.Len(t, seen, 3, "every copy gets its own id")

	rows, err := store.ReadRows(ctx, "shop.Order")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestFilterData(t *testing.T) {
	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasFilterData,
		Params: map[string]any{"where": "status == 'new' && total > `10`"},
	})
	assert.Equal(t, 0, a.InputRowsMin())
	assert.False(t, a.HasCapability(domain.CapabilityModifiesData))

	res, err := a.Handle(context.Background(), domain.NewTask(orders()), nil)
	require.NoError(t, err)
	assert.False(t, res.DataModified)
	require.Equal(t, 2, res.Data.Len())
	assert.Equal(t, "1", res.Data.Rows[0]["id"])
	assert.Equal(t, 120, res.Data.Rows[0]["total"], "kept rows are unchanged")
	assert.Equal(t, "3", res.Data.Rows[1]["id"])
	assert.Equal(t, "shop.Order", res.Data.Object)
}

func TestFilterData_LimitAndEmptyInput(t *testing.T) {
	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasFilterData,
		Params: map[string]any{"where": "status", "limit": 1},
	})
	res, err := a.Handle(context.Background(), domain.NewTask(orders()), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data.Len())

	res, err = a.Handle(context.Background(), domain.NewTask(nil), nil)
	require.NoError(t, err)
	assert.True(t, res.HasData())
	assert.True(t, res.Data.IsEmpty())
}

func TestFilterData_InvalidExpression(t *testing.T) {
	_, err := actions.NewRegistry().Create(context.Background(), domain.ActionDescription{
		Alias:  domain.AliasFilterData,
		Params: map[string]any{"where": "status =="},
	}, nil)
	assert.ErrorContains(t, err, "invalid filter expression")
}

func TestShowMessage(t *testing.T) {
	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasShowMessage,
		Params: map[string]any{"text": "{rows} orders processed"},
	})
	res, err := a.Handle(context.Background(), domain.NewTask(orders()), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultMessage, res.Kind)
	assert.Equal(t, "3 orders processed", res.Message)
	assert.False(t, res.HasData())
}

func TestShowDialog(t *testing.T) {
	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasShowDialog,
		Params: map[string]any{"title": "Confirm", "text": "Really?"},
	})
	assert.True(t, a.HasCapability(domain.CapabilityRendersSurface))
	assert.Equal(t, "Confirm", a.Name())

	res, err := a.Handle(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Confirm\nReally?", res.Message)
}

func TestParamsAreValidated(t *testing.T) {
	_, err := actions.NewRegistry().Create(context.Background(), domain.ActionDescription{
		Alias:  domain.AliasShowMessage,
		Params: map[string]any{"txt": "typo"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text")
}

func TestDescribeReturnsDescription(t *testing.T) {
	desc := domain.ActionDescription{
		Alias:        domain.AliasShowMessage,
		Name:         "Done",
		InputRowsMax: domain.Ptr(5),
		Params:       map[string]any{"text": "done"},
	}
	a := create(t, desc)
	assert.Equal(t, "Done", a.Name())
	assert.Equal(t, 5, a.InputRowsMax())
	assert.Equal(t, desc, a.(ports.Describer).Describe())
}

func TestBindSurface(t *testing.T) {
	a := create(t, domain.ActionDescription{
		Alias:  domain.AliasShowMessage,
		Params: map[string]any{"text": "x"},
	})
	s := &domain.Surface{ID: "btn-ship"}
	a.(ports.SurfaceBinder).BindSurface(s)
	assert.Same(t, s, a.(*actions.ShowMessage).Surface())
}
