package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-service-mock/internal/testutil"
	"github.com/raywall/fast-service-mock/pkg/exchange"
	"github.com/raywall/fast-service-mock/pkg/journal"
	"github.com/raywall/fast-service-mock/pkg/linkage"
	"github.com/raywall/fast-service-mock/pkg/metrics"
	"github.com/raywall/fast-service-mock/pkg/overrides"
	"github.com/raywall/fast-service-mock/pkg/pipeline"
	"github.com/raywall/fast-service-mock/pkg/resolver"
	"github.com/raywall/fast-service-mock/pkg/routes"
	"github.com/raywall/fast-service-mock/pkg/rules"
	"github.com/raywall/fast-service-mock/pkg/synth"
	"github.com/raywall/fast-service-mock/pkg/validation"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []journal.Entry
	err     error
	panics  bool
}

func (s *recordingSink) Record(_ context.Context, e journal.Entry) error {
	if s.panics {
		panic("sink quebrado")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

type countingProvider struct {
	mu     sync.Mutex
	counts int
}

func (c *countingProvider) Count(string, float64, []string) error {
	c.mu.Lock()
	c.counts++
	c.mu.Unlock()
	return nil
}
func (c *countingProvider) Gauge(string, float64, []string) error     { return nil }
func (c *countingProvider) Histogram(string, float64, []string) error { return nil }

type harness struct {
	pipeline *pipeline.Pipeline
	sink     *recordingSink
	metrics  *countingProvider
}

func newHarness(t *testing.T, store linkage.Store, ov *overrides.Table) *harness {
	t.Helper()
	table, err := routes.Build(testutil.LoadContract(t, testutil.PaymentsContract))
	require.NoError(t, err)
	rm, err := rules.NewRuleManager()
	require.NoError(t, err)
	v, err := validation.New(table.Schemes(), rm)
	require.NoError(t, err)

	res := resolver.New(ov, store, synth.New(synth.WithSeed(1)), zerolog.Nop(), resolver.Options{})
	sink := &recordingSink{}
	provider := &countingProvider{}
	p := pipeline.New(table, v, res, pipeline.Options{
		Journal:  sink,
		Recorder: metrics.NewRecorder(provider),
		Logger:   zerolog.Nop(),
	})
	return &harness{pipeline: p, sink: sink, metrics: provider}
}

func request(method, path, body string, headers ...string) *exchange.Request {
	h := http.Header{}
	for i := 0; i+1 < len(headers); i += 2 {
		h.Set(headers[i], headers[i+1])
	}
	return &exchange.Request{Method: method, Path: path, Header: h, Body: []byte(body)}
}

func decode(t *testing.T, resp *exchange.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &out), "body: %s", resp.Body)
	return out
}

func TestPaymentsScenario(t *testing.T) {
	h := newHarness(t, linkage.NewMemoryStore(), overrides.Empty())
	ctx := context.Background()

	submitted := `{"amount":100,"currency":"USD"}`
	created := h.pipeline.Handle(ctx, request("POST", "/payments", submitted))
	require.Equal(t, http.StatusCreated, created.Status)
	assert.Equal(t, "application/json", created.Header.Get("Content-Type"))

	body := decode(t, created)
	assert.Equal(t, "pending", body["status"])
	ref, _ := body["reference"].(string)
	require.NotEmpty(t, ref)
	assert.Equal(t, ref, created.Header.Get(resolver.ReferenceHeader))

	fetched := h.pipeline.Handle(ctx, request("GET", "/payments/"+ref, ""))
	assert.Equal(t, http.StatusOK, fetched.Status)
	assert.Equal(t, submitted, string(fetched.Body))

	again := h.pipeline.Handle(ctx, request("GET", "/payments/"+ref, ""))
	assert.Equal(t, fetched.Body, again.Body)

	unknown := h.pipeline.Handle(ctx, request("GET", "/payments/nunca-emitida", ""))
	assert.Equal(t, http.StatusNotFound, unknown.Status)
	assert.JSONEq(t, `{"error":"Not found"}`, string(unknown.Body))

	require.Len(t, h.sink.entries, 4)
	assert.Equal(t, "POST /payments", h.sink.entries[0].Operation)
	assert.Equal(t, ref, h.sink.entries[0].Reference)
	assert.Equal(t, "retrieve", h.sink.entries[1].Source)
	assert.Equal(t, 4, h.metrics.counts)
}

func TestDistinctReferences(t *testing.T) {
	h := newHarness(t, linkage.NewMemoryStore(), overrides.Empty())
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	refs := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := `{"amount":` + string(rune('1'+i%9)) + `,"currency":"BRL"}`
			resp := h.pipeline.Handle(ctx, request("POST", "/payments", body))
			refs[i] = resp.Header.Get(resolver.ReferenceHeader)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, ref := range refs {
		require.NotEmpty(t, ref)
		assert.False(t, seen[ref], "referência repetida %s", ref)
		seen[ref] = true

		resp := h.pipeline.Handle(ctx, request("GET", "/payments/"+ref, ""))
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "BRL", decode(t, resp)["currency"])
	}
}

func TestLiteralRouteWinsOverParameter(t *testing.T) {
	h := newHarness(t, linkage.NewMemoryStore(), overrides.Empty())

	resp := h.pipeline.Handle(context.Background(), request("GET", "/payments/summary", ""))
	assert.Equal(t, http.StatusOK, resp.Status)
	body := decode(t, resp)
	assert.Contains(t, body, "total")
	assert.Contains(t, body, "count")
}

func TestSecurityFailureStopsBeforeResolution(t *testing.T) {
	ov, err := overrides.Load([]byte(`
overrides:
  - path: /accounts/7
    method: GET
    body: {overridden: true}
`))
	require.NoError(t, err)
	h := newHarness(t, linkage.NewMemoryStore(), ov)

	resp := h.pipeline.Handle(context.Background(), request("GET", "/accounts/7", ""))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.JSONEq(t, `{"error":"Unauthorized","scheme":"apiKey"}`, string(resp.Body))

	resp = h.pipeline.Handle(context.Background(), request("GET", "/accounts/7", "", "X-API-Key", "k"))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"overridden":true}`, string(resp.Body))
}

func TestValidationAndRouting(t *testing.T) {
	h := newHarness(t, linkage.NewMemoryStore(), overrides.Empty())

	tests := []struct {
		name   string
		req    *exchange.Request
		status int
		body   string
	}{
		{
			name:   "rota inexistente",
			req:    request("GET", "/refunds", ""),
			status: 404,
			body:   `{"error":"Not found"}`,
		},
		{
			name:   "método não declarado",
			req:    request("DELETE", "/payments", ""),
			status: 404,
			body:   `{"error":"Not found"}`,
		},
		{
			name:   "body inválido",
			req:    request("POST", "/payments", `{"amount":0,"currency":"USD"}`),
			status: 400,
		},
		{
			name:   "path param com tipo errado",
			req:    request("GET", "/accounts/abc", "", "X-API-Key", "k"),
			status: 400,
		},
		{
			name:   "status pedido pelo header",
			req:    request("GET", "/accounts/7", "", "X-API-Key", "k", "X-Mock-Status", "403"),
			status: 403,
			body:   `{"error":"denied"}`,
		},
		{
			name:   "sem resposta declarada",
			req:    request("GET", "/ping", ""),
			status: 500,
			body:   `{"error":"No response defined for status 200"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.pipeline.Handle(context.Background(), tt.req)
			assert.Equal(t, tt.status, resp.Status)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, string(resp.Body))
			}
			if tt.status == 400 {
				body := decode(t, resp)
				assert.Equal(t, "Request validation failed", body["error"])
				assert.NotEmpty(t, body["violations"])
			}
		})
	}
}

type panickingStore struct{}

func (panickingStore) Put(context.Context, json.RawMessage) (string, error) { panic("boom") }
func (panickingStore) Get(context.Context, string) (json.RawMessage, bool, error) {
	return nil, false, errors.New("timeout")
}

func TestCollaboratorFailuresBecome500(t *testing.T) {
	h := newHarness(t, panickingStore{}, overrides.Empty())

	resp := h.pipeline.Handle(context.Background(), request("POST", "/payments", `{"amount":1,"currency":"EUR"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, string(resp.Body))

	resp = h.pipeline.Handle(context.Background(), request("GET", "/payments/abc", ""))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)

	// panics também passam pelo journal
	assert.Len(t, h.sink.entries, 2)
}

func TestJournalFailureDoesNotChangeResponse(t *testing.T) {
	h := newHarness(t, linkage.NewMemoryStore(), overrides.Empty())
	ctx := pipeline.WithCorrelationID(context.Background(), "corr-1")

	h.sink.err = errors.New("fila indisponível")
	resp := h.pipeline.Handle(ctx, request("GET", "/payments/summary", ""))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "corr-1", h.sink.entries[0].CorrelationID)

	h.sink.panics = true
	resp = h.pipeline.Handle(ctx, request("GET", "/payments/summary", ""))
	assert.Equal(t, http.StatusOK, resp.Status)
}
