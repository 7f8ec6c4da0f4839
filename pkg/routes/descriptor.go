package routes

import (
	"fmt"

	"github.com/raywall/fast-service-mock/pkg/contract"
)

// Behavior é o conjunto fechado de comportamentos de uma operação:
// Plain, Store ou Retrieve. Consumidores devem usar um type switch exaustivo.
type Behavior interface {
	behavior()
	String() string
}

// Plain resolve a resposta apenas a partir do contrato.
type Plain struct{}

// Store armazena o body da requisição e injeta a referência emitida na resposta.
type Store struct {
	ReferenceField string
}

// Retrieve busca um body armazenado usando o valor de um path param.
type Retrieve struct {
	SourceParam string
}

func (Plain) behavior()    {}
func (Store) behavior()    {}
func (Retrieve) behavior() {}

func (Plain) String() string      { return "plain" }
func (s Store) String() string    { return fmt.Sprintf("store(%s)", s.ReferenceField) }
func (r Retrieve) String() string { return fmt.Sprintf("retrieve(%s)", r.SourceParam) }

// Parameter é um parâmetro normalizado (path-level + operation-level).
type Parameter struct {
	Name     string
	In       string
	Required bool
	Schema   *contract.Schema
}

type RequestBody struct {
	Required  bool
	MediaType string
	Schema    *contract.Schema
}

// ResponseDef é a definição de resposta para um status.
type ResponseDef struct {
	Description string
	Schema      *contract.Schema
	Example     any
	HasExample  bool
}

// OperationDescriptor é imutável após o Build.
type OperationDescriptor struct {
	ID          string
	Method      string
	Template    PathTemplate
	Parameters  []Parameter
	RequestBody *RequestBody
	Security    []string
	Responses   map[int]*ResponseDef
	// Statuses lista os status numéricos declarados em ordem crescente.
	Statuses []int
	// Default é a response "default" do contrato, se declarada.
	Default *ResponseDef
	// IgnoredResponses guarda chaves de faixa (ex: "2XX") não servidas.
	IgnoredResponses []string
	Behavior         Behavior
}

// Key identifica a operação de forma única na tabela.
func (op *OperationDescriptor) Key() string {
	return op.Method + " " + op.Template.Canonical()
}

// Response devolve a definição declarada para o status.
func (op *OperationDescriptor) Response(status int) (*ResponseDef, bool) {
	def, ok := op.Responses[status]
	return def, ok
}

// HasStatus informa se o status foi declarado explicitamente.
func (op *OperationDescriptor) HasStatus(status int) bool {
	_, ok := op.Responses[status]
	return ok
}

// ParametersIn filtra os parâmetros por localização.
func (op *OperationDescriptor) ParametersIn(in string) []Parameter {
	var out []Parameter
	for _, p := range op.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}
