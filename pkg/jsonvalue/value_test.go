package jsonvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payment = `{
	"reference": "r-1",
	"payer": {"name": "Ada", "document": {"type": "cpf"}},
	"items": [{"sku": "A", "qty": 2}, {"sku": "B", "qty": 1}]
}`

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestExtract(t *testing.T) {
	data := decode(t, payment)

	tests := []struct {
		path string
		want any
	}{
		{"reference", "r-1"},
		{"payer.name", "Ada"},
		{"payer.document.type", "cpf"},
		{"items[1].sku", "B"},
		{"items[0].qty", float64(2)},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Extract(data, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	whole, err := Extract(data, "")
	require.NoError(t, err)
	assert.Equal(t, data, whole)
}

func TestExtract_Errors(t *testing.T) {
	data := decode(t, payment)

	for _, path := range []string{"missing", "payer.age", "items[5]", "reference.x", "items[x]", "items[0"} {
		t.Run(path, func(t *testing.T) {
			_, err := Extract(data, path)
			assert.Error(t, err)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	original := decode(t, payment).(map[string]any)
	copied := Clone(original).(map[string]any)

	copied["payer"].(map[string]any)["name"] = "Grace"
	copied["items"].([]any)[0] = "changed"

	assert.Equal(t, "Ada", original["payer"].(map[string]any)["name"])
	assert.IsType(t, map[string]any{}, original["items"].([]any)[0])
}

func TestNormalize(t *testing.T) {
	in := map[string]any{
		"codes": map[any]any{200: "ok", "x": []any{map[any]any{true: 1}}},
	}
	out := Normalize(in)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"codes":{"200":"ok","x":[{"true":1}]}}`, string(raw))
}
