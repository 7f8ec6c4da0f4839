package graphql

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-service-mock/internal/testutil"
	"github.com/raywall/fast-service-mock/pkg/linkage"
	"github.com/raywall/fast-service-mock/pkg/routes"
)

func newAdmin(t *testing.T) (*AdminEngine, *linkage.MemoryStore) {
	t.Helper()
	table, err := routes.Build(testutil.LoadContract(t, testutil.PaymentsContract))
	require.NoError(t, err)
	store := linkage.NewMemoryStore()
	engine, err := NewAdminEngine(table, store)
	require.NoError(t, err)
	return engine, store
}

func resultJSON(t *testing.T, data interface{}) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestAdminEngine_Operations(t *testing.T) {
	engine, _ := newAdmin(t)

	res := engine.Execute(context.Background(), `{ operations(method: "get") { method path behavior statuses } }`, nil)
	require.Empty(t, res.Errors)

	ops := resultJSON(t, res.Data)["operations"].([]interface{})
	require.Len(t, ops, 4)
	first := ops[0].(map[string]interface{})
	assert.Equal(t, "/accounts/{id}", first["path"])
	assert.Equal(t, []interface{}{float64(200), float64(403)}, first["statuses"])

	res = engine.Execute(context.Background(), `query($id: String!) { operation(id: $id) { behavior security parameters { name in required } } }`,
		map[string]interface{}{"id": "getPayment"})
	require.Empty(t, res.Errors)
	op := resultJSON(t, res.Data)["operation"].(map[string]interface{})
	assert.Equal(t, "retrieve(reference)", op["behavior"])
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "reference", "in": "path", "required": true}}, op["parameters"])
}

func TestAdminEngine_Reference(t *testing.T) {
	engine, store := newAdmin(t)
	ref, err := store.Put(context.Background(), json.RawMessage(`{"amount":100,"items":[{"sku":"A1"}]}`))
	require.NoError(t, err)

	query := `query($id: String!, $path: String) { reference(id: $id, path: $path) { id found payload value } }`

	res := engine.Execute(context.Background(), query, map[string]interface{}{"id": ref, "path": "items[0].sku"})
	require.Empty(t, res.Errors)
	got := resultJSON(t, res.Data)["reference"].(map[string]interface{})
	assert.Equal(t, true, got["found"])
	assert.JSONEq(t, `{"amount":100,"items":[{"sku":"A1"}]}`, got["payload"].(string))
	assert.Equal(t, `"A1"`, got["value"])

	res = engine.Execute(context.Background(), query, map[string]interface{}{"id": "desconhecida"})
	require.Empty(t, res.Errors)
	got = resultJSON(t, res.Data)["reference"].(map[string]interface{})
	assert.Equal(t, false, got["found"])
	assert.Nil(t, got["payload"])

	res = engine.Execute(context.Background(), query, map[string]interface{}{"id": ref, "path": "items[5]"})
	assert.NotEmpty(t, res.Errors)

	// consultas não criam referências
	assert.Equal(t, 1, store.Len())
}
