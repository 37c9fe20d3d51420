package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/catena/internal/testutils"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runChain(t *testing.T, hooks domain.LifecycleHooks, actions ...any) error {
	t.Helper()
	c, err := chain.New(context.Background(), actions, nil,
		chain.WithName("ship"), chain.WithSkipIfInputEmpty(true), chain.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	_, err = c.Handle(context.Background(), domain.NewTask(nil), nil)
	return err
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	require.NoError(t, runChain(t, m.Hooks(),
		testutils.NewFakeAction("a"),
		testutils.NewFakeAction("b", testutils.WithRowLimits(1, domain.UnlimitedRows)),
	))
	require.Error(t, runChain(t, m.Hooks(),
		testutils.NewFakeAction("a", testutils.WithHandler(testutils.ReturnError(testutils.ErrBoom))),
	))

	for name, want := range map[string]int{
		"catena_chain_executions_total": 2, // ok + error
		"catena_step_executions_total":  3, // a ok, b skipped, a error
		"catena_chain_duration_seconds": 1,
	} {
		count, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Equal(t, want, count, name)
	}
}

func TestMetrics_Unregistered(t *testing.T) {
	m := observability.NewMetrics(nil)
	require.NoError(t, runChain(t, m.Hooks(), testutils.NewFakeAction("a")))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	require.NoError(t, runChain(t, observability.LoggingHooks(logger),
		testutils.NewFakeAction("a"),
		testutils.NewFakeAction("b", testutils.WithRowLimits(1, domain.UnlimitedRows)),
	))

	out := buf.String()
	assert.Contains(t, out, "msg=chain_start chain=ship steps=2")
	assert.Contains(t, out, "msg=step_start chain=ship index=0 action=a")
	assert.Contains(t, out, "action=b skipped=true")
	assert.Contains(t, out, "msg=chain_end")
}
