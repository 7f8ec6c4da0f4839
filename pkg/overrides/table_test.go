package overrides_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-service-mock/pkg/overrides"
)

const sample = `
overrides:
  - path: /payments/summary
    method: get
    headers:
      X-Source: override
    body:
      total: 12.5
      count: 3
  - path: /payments/{reference}
    method: GET
    status: 410
    raw: '{"gone" : true}'
  - path: /health
    method: HEAD
    status: 204
`

func TestLoad_Lookup(t *testing.T) {
	table, err := overrides.Load([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	resp, ok := table.Lookup("GET", "/payments/summary")
	require.True(t, ok)
	assert.Equal(t, 200, resp.Status)
	assert.JSONEq(t, `{"total":12.5,"count":3}`, string(resp.Body))
	assert.Equal(t, "override", resp.Headers["X-Source"])

	// template literal, sem casamento de parâmetros
	resp, ok = table.Lookup("GET", "/payments/{reference}")
	require.True(t, ok)
	assert.Equal(t, 410, resp.Status)
	assert.Equal(t, `{"gone" : true}`, string(resp.Body), "raw deve ser servido byte a byte")

	_, ok = table.Lookup("GET", "/payments/abc")
	assert.False(t, ok)

	resp, ok = table.Lookup("head", "/health")
	require.True(t, ok)
	assert.Equal(t, 204, resp.Status)
	assert.Equal(t, `{}`, string(resp.Body), "sem body nem raw, o corpo padrão é um objeto vazio")

	_, ok = table.Lookup("POST", "/payments/summary")
	assert.False(t, ok)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	table, err := overrides.Load([]byte(sample))
	require.NoError(t, err)

	first, _ := table.Lookup("GET", "/payments/summary")
	first.Body[0] = 'X'
	first.Headers["X-Source"] = "changed"

	second, _ := table.Lookup("GET", "/payments/summary")
	assert.JSONEq(t, `{"total":12.5,"count":3}`, string(second.Body))
	assert.Equal(t, "override", second.Headers["X-Source"])
}

func TestLoad_NonStringKeys(t *testing.T) {
	table, err := overrides.Load([]byte(`
overrides:
  - path: /codes
    method: GET
    body:
      200: ok
      404: missing
`))
	require.NoError(t, err)

	resp, ok := table.Lookup("GET", "/codes")
	require.True(t, ok)
	assert.JSONEq(t, `{"200":"ok","404":"missing"}`, string(resp.Body))
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"yaml malformado":   "overrides: [",
		"path relativo":     "overrides:\n  - {path: payments, method: GET}\n",
		"método inválido":   "overrides:\n  - {path: /a, method: FETCH}\n",
		"status inválido":   "overrides:\n  - {path: /a, method: GET, status: 42}\n",
		"raw e body juntos": "overrides:\n  - {path: /a, method: GET, raw: '{}', body: {a: 1}}\n",
		"duplicado":         "overrides:\n  - {path: /a, method: GET}\n  - {path: /a, method: get}\n",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := overrides.Load([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestNilTable(t *testing.T) {
	var table *overrides.Table
	_, ok := table.Lookup("GET", "/")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 0, overrides.Empty().Len())
}
