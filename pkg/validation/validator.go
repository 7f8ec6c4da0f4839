// Package validation aplica os requisitos de segurança e de schema declarados
// no contrato antes de a resposta ser resolvida.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/raywall/fast-service-mock/pkg/contract"
	"github.com/raywall/fast-service-mock/pkg/exchange"
	"github.com/raywall/fast-service-mock/pkg/routes"
	"github.com/raywall/fast-service-mock/pkg/rules"
)

type compiledScheme struct {
	expression    string
	failureStatus int
}

// Validator é imutável após New e seguro para uso concorrente.
type Validator struct {
	rules   *rules.RuleManager
	schemes map[string]compiledScheme
}

// New compila os predicados de todos os esquemas de segurança. Um predicado
// inválido é erro de inicialização.
func New(schemes map[string]*contract.SecurityScheme, rm *rules.RuleManager) (*Validator, error) {
	v := &Validator{rules: rm, schemes: make(map[string]compiledScheme, len(schemes))}

	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		scheme := schemes[name]
		expr, err := rules.SecurityPredicate(scheme)
		if err != nil {
			return nil, fmt.Errorf("esquema de segurança '%s': %w", name, err)
		}
		if _, err := rm.CompileProgram(expr); err != nil {
			return nil, fmt.Errorf("esquema de segurança '%s': %w", name, err)
		}
		status := scheme.FailureStatus
		if status == 0 {
			status = http.StatusUnauthorized
		}
		v.schemes[name] = compiledScheme{expression: expr, failureStatus: status}
	}
	return v, nil
}

// Validate executa a verificação de segurança e, em seguida, a de schema.
func (v *Validator) Validate(op *routes.OperationDescriptor, req *exchange.Request) error {
	if err := v.CheckSecurity(op, req); err != nil {
		return err
	}
	return v.CheckRequest(op, req)
}

// CheckSecurity exige que todos os esquemas da operação sejam satisfeitos. O
// primeiro esquema (em ordem alfabética) que falhar define o status.
func (v *Validator) CheckSecurity(op *routes.OperationDescriptor, req *exchange.Request) error {
	if len(op.Security) == 0 {
		return nil
	}

	activation := map[string]interface{}{
		"header": req.HeaderMap(),
		"query":  req.QueryMap(),
		"cookie": req.CookieMap(),
		"path":   req.PathMap(),
		"method": strings.ToUpper(req.Method),
	}

	for _, name := range op.Security {
		scheme, ok := v.schemes[name]
		if !ok {
			return &ValidationError{Status: http.StatusUnauthorized, Scheme: name}
		}
		passed, err := v.rules.EvaluateBool(scheme.expression, activation)
		if err != nil || !passed {
			return &ValidationError{Status: scheme.failureStatus, Scheme: name}
		}
	}
	return nil
}

// CheckRequest valida parâmetros e body contra os schemas declarados.
func (v *Validator) CheckRequest(op *routes.OperationDescriptor, req *exchange.Request) error {
	var violations []Violation

	for _, p := range op.Parameters {
		raw, present := parameterValues(p, req)
		loc := p.In + "." + p.Name
		if !present {
			if p.Required {
				violations = append(violations, Violation{Location: loc, Message: "parâmetro obrigatório"})
			}
			continue
		}
		if p.Schema == nil {
			continue
		}
		value, err := coerce(p.Schema, raw)
		if err != nil {
			violations = append(violations, Violation{Location: loc, Message: err.Error()})
			continue
		}
		violations = append(violations, CheckValue(p.Schema, value, loc)...)
	}

	violations = append(violations, checkBody(op.RequestBody, req.Body)...)

	if len(violations) > 0 {
		return &ValidationError{Status: http.StatusBadRequest, Violations: violations}
	}
	return nil
}

func checkBody(body *routes.RequestBody, raw []byte) []Violation {
	if body == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		if body.Required {
			return []Violation{{Location: "body", Message: "body obrigatório"}}
		}
		return nil
	}
	if body.Schema == nil || !isJSONMediaType(body.MediaType) {
		return nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return []Violation{{Location: "body", Message: "JSON inválido"}}
	}
	return CheckValue(body.Schema, value, "body")
}

func isJSONMediaType(mt string) bool {
	return mt == "" || strings.Contains(mt, "json")
}

func parameterValues(p routes.Parameter, req *exchange.Request) ([]string, bool) {
	switch p.In {
	case "path":
		val, ok := req.PathParams[p.Name]
		return []string{val}, ok
	case "query":
		vals, ok := req.Query[p.Name]
		return vals, ok && len(vals) > 0
	case "header":
		vals := req.Header.Values(p.Name)
		return vals, len(vals) > 0
	case "cookie":
		val, ok := req.Cookies[p.Name]
		return []string{val}, ok
	}
	return nil, false
}

// coerce converte o texto do parâmetro para o tipo do schema. Arrays aceitam
// valores repetidos ou separados por vírgula.
func coerce(schema *contract.Schema, raw []string) (any, error) {
	sc := schema.Deref()
	if sc == nil || len(raw) == 0 {
		return nil, nil
	}

	if sc.InferredType() == "array" {
		parts := raw
		if len(raw) == 1 {
			parts = strings.Split(raw[0], ",")
		}
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			item, err := coerceScalar(sc.Items, part)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	}
	return coerceScalar(sc, raw[0])
}

func coerceScalar(schema *contract.Schema, raw string) (any, error) {
	sc := schema.Deref()
	if sc == nil {
		return raw, nil
	}
	switch sc.InferredType() {
	case "integer":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("deve ser do tipo integer")
		}
		return n, nil
	case "number":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("deve ser do tipo number")
		}
		return f, nil
	case "boolean":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("deve ser do tipo boolean")
		}
		return b, nil
	case "object":
		var m any
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("deve ser um objeto JSON")
		}
		return m, nil
	}
	return raw, nil
}
