package engine

import (
	"fmt"

	"github.com/raywall/fast-service-mock/pkg/contract"
	"github.com/raywall/fast-service-mock/pkg/jsonvalue"
	"github.com/raywall/fast-service-mock/pkg/routes"
	"github.com/raywall/fast-service-mock/pkg/rules"
	"github.com/raywall/fast-service-mock/pkg/validation"
)

// ValidationReport contém o resultado detalhado da análise.
type ValidationReport struct {
	Valid      bool     `json:"valid"`
	Operations int      `json:"operations"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// AnalyzeContract carrega o contrato, compila a tabela de rotas e inspeciona
// cada operação. Erros impedem o mock de subir; warnings não.
func AnalyzeContract(data []byte) (*ValidationReport, *routes.Table) {
	report := &ValidationReport{Valid: true}

	// 1. Documento
	doc, err := contract.Load(data)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		report.Valid = false
		return report, nil
	}

	// 2. Estrutura (tabela de rotas)
	table, err := routes.Build(doc)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		report.Valid = false
		return report, nil
	}
	report.Operations = table.Len()

	// 3. Predicados de segurança
	rm, err := rules.NewRuleManager()
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("falha interna ao iniciar analisador de regras: %v", err))
	} else if _, err := validation.New(table.Schemes(), rm); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	// 4. Inspeção por operação
	for _, op := range table.Operations() {
		report.Warnings = append(report.Warnings, inspect(op)...)
	}

	report.Valid = len(report.Errors) == 0
	return report, table
}

func inspect(op *routes.OperationDescriptor) []string {
	var warnings []string
	key := op.Key()

	if len(op.Statuses) == 0 && op.Default == nil {
		warnings = append(warnings, fmt.Sprintf("%s: nenhuma resposta declarada, requisições terão status 500", key))
	}
	for _, ignored := range op.IgnoredResponses {
		warnings = append(warnings, fmt.Sprintf("%s: resposta '%s' ignorada (faixas de status não são servidas)", key, ignored))
	}

	if store, ok := op.Behavior.(routes.Store); ok && store.ReferenceField == "" {
		warnings = append(warnings, fmt.Sprintf("%s: x-mock-store sem referenceField, a referência só vai no header", key))
	}

	for _, status := range op.Statuses {
		def, _ := op.Response(status)
		if !def.HasExample || def.Schema == nil {
			continue
		}
		violations := validation.CheckValue(def.Schema, jsonvalue.Normalize(def.Example), "example")
		for _, v := range violations {
			warnings = append(warnings, fmt.Sprintf("%s [%d]: exemplo não satisfaz o próprio schema em %s: %s", key, status, v.Location, v.Message))
		}
	}
	return warnings
}
