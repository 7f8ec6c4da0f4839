package routes

import (
	"sort"
	"strings"

	"github.com/raywall/fast-service-mock/pkg/contract"
)

// Table é a tabela de rotas imutável, ordenada por precedência: segmentos
// literais vencem segmentos parametrizados na mesma posição.
type Table struct {
	ops     []*OperationDescriptor
	schemes map[string]*contract.SecurityScheme
}

func (t *Table) sort() {
	sort.SliceStable(t.ops, func(i, j int) bool {
		a, b := t.ops[i], t.ops[j]
		if c := compareTemplates(a.Template, b.Template); c != 0 {
			return c < 0
		}
		return a.Method < b.Method
	})
}

// Operations devolve as operações em ordem de precedência.
func (t *Table) Operations() []*OperationDescriptor {
	out := make([]*OperationDescriptor, len(t.ops))
	copy(out, t.ops)
	return out
}

func (t *Table) Len() int { return len(t.ops) }

// Schemes devolve os esquemas de segurança referenciados por alguma operação.
func (t *Table) Schemes() map[string]*contract.SecurityScheme {
	out := make(map[string]*contract.SecurityScheme, len(t.schemes))
	for k, v := range t.schemes {
		out[k] = v
	}
	return out
}

// Match encontra a primeira operação (em ordem de precedência) cujo método e
// template casam com a requisição. O método é comparado sem diferenciar caixa.
func (t *Table) Match(method, path string) (*OperationDescriptor, map[string]string, bool) {
	method = strings.ToUpper(method)
	for _, op := range t.ops {
		if op.Method != method {
			continue
		}
		if params, ok := op.Template.Match(path); ok {
			return op, params, true
		}
	}
	return nil, nil, false
}

// Find localiza uma operação pelo operationId.
func (t *Table) Find(id string) (*OperationDescriptor, bool) {
	for _, op := range t.ops {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// RouteSummary é a visão serializável de uma operação da tabela.
type RouteSummary struct {
	ID       string   `json:"id,omitempty"`
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Behavior string   `json:"behavior"`
	Statuses []int    `json:"statuses"`
	Security []string `json:"security,omitempty"`
}

// Describe devolve a tabela em ordem de precedência.
func (t *Table) Describe() []RouteSummary {
	out := make([]RouteSummary, 0, len(t.ops))
	for _, op := range t.ops {
		statuses := op.Statuses
		if statuses == nil {
			statuses = []int{}
		}
		out = append(out, RouteSummary{
			ID:       op.ID,
			Method:   op.Method,
			Path:     op.Template.Raw,
			Behavior: op.Behavior.String(),
			Statuses: statuses,
			Security: op.Security,
		})
	}
	return out
}
