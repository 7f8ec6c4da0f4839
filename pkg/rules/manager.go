package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// RuleManager gerencia a compilação e avaliação de expressões CEL sobre os
// dados de uma requisição. Programas compilados ficam em cache por expressão.
type RuleManager struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewRuleManager inicializa o ambiente CEL com as variáveis padrão esperadas.
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.Variable("header", cel.DynType), // Headers (nomes em minúsculas)
		cel.Variable("query", cel.DynType),  // Query string
		cel.Variable("cookie", cel.DynType), // Cookies
		cel.Variable("path", cel.DynType),   // Parâmetros de path
		cel.Variable("method", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("erro fatal CEL init: %w", err)
	}

	return &RuleManager{env: env, programs: map[string]cel.Program{}}, nil
}

// EvaluateBool processa regras de validação (deve retornar true/false).
func (rm *RuleManager) EvaluateBool(expression string, ctx map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil // Expressão vazia = aprova
	}

	prg, err := rm.CompileProgram(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("erro execução CEL: %w", err)
	}

	// Converte resultado para bool
	if val, ok := out.Value().(bool); ok {
		return val, nil
	}
	return false, fmt.Errorf("resultado não é booleano")
}

// CompileProgram compila (ou recupera do cache) a expressão.
func (rm *RuleManager) CompileProgram(expr string) (cel.Program, error) {
	rm.mu.RLock()
	prg, ok := rm.programs[expr]
	rm.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := rm.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("erro compilação CEL '%s': %w", expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expressão CEL '%s' deve ser booleana, é %s", expr, out)
	}
	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar programa CEL: %w", err)
	}

	rm.mu.Lock()
	rm.programs[expr] = prg
	rm.mu.Unlock()
	return prg, nil
}
