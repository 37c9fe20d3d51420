package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/catena/internal/testutils"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/registry"
	"github.com/aretw0/catena/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCtor(name string) registry.Constructor {
	return func(ctx context.Context, desc domain.ActionDescription, surface *domain.Surface) (ports.Action, error) {
		a := testutils.NewFakeAction(name)
		a.BindSurface(surface)
		return a, nil
	}
}

func TestRegistry_Create(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("acme.Ping", fakeCtor("ping"))

	surface := &domain.Surface{ID: "btn"}
	a, err := reg.Create(context.Background(), domain.ActionDescription{Alias: "ACME.ping"}, surface)
	require.NoError(t, err)
	assert.Equal(t, "ping", a.Name())
	assert.Same(t, surface, a.(*testutils.FakeAction).BoundSurface())
}

func TestRegistry_UnknownAlias(t *testing.T) {
	reg := registry.NewRegistry()
	_, err := reg.Create(context.Background(), domain.ActionDescription{Alias: "acme.Missing"}, nil)
	require.ErrorIs(t, err, domain.ErrUnknownAction)
	assert.Contains(t, err.Error(), "acme.Missing")
}

func TestRegistry_ValidatesParams(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("acme.Greet", fakeCtor("greet"), registry.WithParams(schema.Schema{
		"text":  schema.String(),
		"times": schema.Optional(schema.Int()),
	}))

	_, err := reg.Create(context.Background(), domain.ActionDescription{
		Alias:  "acme.Greet",
		Params: map[string]any{"text": "hi", "times": 2},
	}, nil)
	require.NoError(t, err)

	_, err = reg.Create(context.Background(), domain.ActionDescription{
		Alias:  "acme.Greet",
		Params: map[string]any{"times": "often", "loud": true},
	}, nil)
	require.Error(t, err)
	keys := map[string]bool{}
	for _, e := range schema.ValidationErrors(err) {
		keys[e.(*schema.ValidationError).Key] = true
	}
	assert.Equal(t, map[string]bool{"text": true, "times": true, "loud": true}, keys)
}

func TestRegistry_Overwrite(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("acme.Ping", fakeCtor("first"))
	reg.Register("Acme.Ping", fakeCtor("second"))

	a, err := reg.Create(context.Background(), domain.ActionDescription{Alias: "acme.ping"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", a.Name())
	assert.Equal(t, []string{"Acme.Ping"}, reg.Aliases())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("b.Two", fakeCtor("two"), registry.WithParams(schema.Schema{"x": schema.Int()}))
	reg.Register("a.One", fakeCtor("one"))

	assert.True(t, reg.Has("A.ONE"))
	assert.False(t, reg.Has("c.Three"))
	assert.Equal(t, []string{"a.One", "b.Two"}, reg.Aliases())

	params, ok := reg.Params("b.two")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, params.Names())

	_, ok = reg.Params("a.One")
	assert.False(t, ok)
}

func TestDecodeParams(t *testing.T) {
	var p struct {
		Limit  int            `mapstructure:"limit"`
		Values map[string]any `mapstructure:"values"`
	}
	err := registry.DecodeParams(map[string]any{"limit": "5", "values": map[string]any{"a": 1}}, &p)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, map[string]any{"a": 1}, p.Values)

	err = registry.DecodeParams(map[string]any{"limit": "many"}, &p)
	assert.Error(t, err)
}
