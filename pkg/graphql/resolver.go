package graphql

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/raywall/fast-service-mock/pkg/jsonvalue"
	"github.com/raywall/fast-service-mock/pkg/routes"
)

func (ae *AdminEngine) resolveOperations(p graphql.ResolveParams) (interface{}, error) {
	method, _ := p.Args["method"].(string)
	var out []map[string]interface{}
	for _, op := range ae.table.Operations() {
		if method != "" && !strings.EqualFold(method, op.Method) {
			continue
		}
		out = append(out, operationView(op))
	}
	return out, nil
}

func (ae *AdminEngine) resolveOperation(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	op, ok := ae.table.Find(id)
	if !ok {
		return nil, nil
	}
	return operationView(op), nil
}

// resolveReference usa apenas Store.Get: a consulta nunca cria nem altera referências.
func (ae *AdminEngine) resolveReference(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	path, _ := p.Args["path"].(string)

	payload, found, err := ae.store.Get(p.Context, id)
	if err != nil {
		return nil, fmt.Errorf("falha ao consultar referência: %w", err)
	}

	view := map[string]interface{}{"id": id, "found": found}
	if !found {
		return view, nil
	}
	view["payload"] = string(payload)

	if path != "" {
		var doc interface{}
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("body da referência não é JSON: %w", err)
		}
		value, err := jsonvalue.Extract(doc, path)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		view["value"] = string(encoded)
	}
	return view, nil
}

func operationView(op *routes.OperationDescriptor) map[string]interface{} {
	params := make([]map[string]interface{}, 0, len(op.Parameters))
	for _, param := range op.Parameters {
		params = append(params, map[string]interface{}{
			"name":     param.Name,
			"in":       param.In,
			"required": param.Required,
		})
	}
	statuses := op.Statuses
	if statuses == nil {
		statuses = []int{}
	}
	return map[string]interface{}{
		"id":         op.ID,
		"method":     op.Method,
		"path":       op.Template.Raw,
		"behavior":   op.Behavior.String(),
		"statuses":   statuses,
		"security":   op.Security,
		"parameters": params,
	}
}
