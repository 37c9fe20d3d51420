package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/catena"
	catenahttp "github.com/aretw0/catena/pkg/adapters/http"
	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shipYAML = `
alias: core.ActionChain
name: Ship
effects:
  - object_alias: shop.Invoice
    type: create
actions:
  - alias: core.UpdateData
    params:
      values:
        status: shipped
  - alias: core.ShowMessage
    params:
      text: "{rows} shipped"
`

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	catalog, err := memory.NewCatalogFromYAML(map[string]string{
		"orders/ship": shipYAML,
		"broken":      "alias: core.ActionChain\nactions:\n  - alias: acme.Nope\n",
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	store := memory.NewStore()
	eng, err := catena.New("", catena.WithCatalog(catalog), catena.WithTransactionProvider(store),
		catena.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	srv := httptest.NewServer(catenahttp.NewHandler(eng,
		catenahttp.WithMetrics(reg),
		catenahttp.WithVersion("1.2.3\n"),
	))
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServer_HealthAndInfo(t *testing.T) {
	srv, _ := newServer(t)

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &health))
	assert.Equal(t, "ok", health["status"])

	var info map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/info", &info))
	assert.Equal(t, "1.2.3", info["version"])
}

func TestServer_Catalog(t *testing.T) {
	srv, _ := newServer(t)

	var list map[string][]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/chains", &list))
	assert.Equal(t, []string{"broken", "orders/ship"}, list["chains"])

	var desc domain.ActionDescription
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/chains/orders%2Fship", &desc))
	assert.Equal(t, "Ship", desc.Name)
	assert.Len(t, desc.Actions, 2)

	var effects map[string][]domain.EffectDescription
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/chains/orders%2Fship/effects", &effects))
	assert.Equal(t, []domain.EffectDescription{{ObjectAlias: "shop.Invoice", Type: domain.EffectCreate}}, effects["effects"])

	var errResp catenahttp.ErrorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/chains/missing", &errResp))
	assert.Contains(t, errResp.Error, "chain not found")
}

func TestServer_Execute(t *testing.T) {
	srv, store := newServer(t)

	body := `{"data": {"object": "shop.Order", "rows": [{"id": "1"}, {"id": "2"}]}}`
	resp, err := http.Post(srv.URL+"/chains/orders%2Fship/execute", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res domain.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, domain.ResultMessage, res.Kind)
	assert.Equal(t, "2 shipped", res.Message)
	assert.True(t, res.DataModified)

	rows, err := store.ReadRows(context.Background(), "shop.Order")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `catena_chain_executions_total{chain="Ship",outcome="ok"} 1`)
}

func TestServer_ExecuteErrors(t *testing.T) {
	srv, _ := newServer(t)

	post := func(path, body string) (int, catenahttp.ErrorResponse) {
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		var out catenahttp.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	status, _ := post("/chains/orders%2Fship/execute", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, out := post("/chains/broken/execute", "{}")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, domain.CodeUnknownAction, out.Code)

	// UpdateData needs at least one row.
	status, out = post("/chains/orders%2Fship/execute", "{}")
	assert.Equal(t, http.StatusInternalServerError, status)
	require.NotNil(t, out.Index)
	assert.Equal(t, 0, *out.Index)
}

func TestServer_ExecutionEvents(t *testing.T) {
	srv, _ := newServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?chain=orders/ship", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	body := `{"data": {"object": "shop.Order", "rows": [{"id": "1"}]}}`
	exec, err := http.Post(srv.URL+"/chains/orders%2Fship/execute", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	exec.Body.Close()

	for lines.Scan() {
		if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok && data != "connected" {
			assert.Contains(t, data, `"message":"1 shipped"`)
			return
		}
	}
	t.Fatal("no execution event received")
}

func TestServer_CatalogEventsUnsupported(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestStreamManager(t *testing.T) {
	sm := catenahttp.NewStreamManager()
	ch, cancel := sm.Subscribe("a")
	assert.Equal(t, 1, sm.Subscribers("a"))

	sm.Broadcast("a", "hello")
	sm.Broadcast("b", "nobody listens")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("a", "flood") // never blocks
	}
	cancel()
	assert.Equal(t, 0, sm.Subscribers("a"))
}
