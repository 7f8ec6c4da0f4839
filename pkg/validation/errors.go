package validation

import (
	"fmt"
	"net/http"
	"strings"
)

// Violation descreve um problema pontual na requisição.
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// ValidationError é devolvido quando a requisição falha na segurança (Scheme
// preenchido, status 401/403) ou no schema (status 400).
type ValidationError struct {
	Status     int
	Scheme     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if e.Scheme != "" {
		return fmt.Sprintf("requisição rejeitada pelo esquema de segurança '%s' (%d)", e.Scheme, e.Status)
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Location + ": " + v.Message
	}
	return fmt.Sprintf("requisição inválida (%d): %s", e.Status, strings.Join(parts, "; "))
}

// IsSecurity indica falha de autenticação/autorização.
func (e *ValidationError) IsSecurity() bool { return e.Scheme != "" }

// Payload é o body JSON da resposta de erro.
func (e *ValidationError) Payload() map[string]any {
	if e.IsSecurity() {
		return map[string]any{
			"error":  http.StatusText(e.Status),
			"scheme": e.Scheme,
		}
	}
	violations := e.Violations
	if violations == nil {
		violations = []Violation{}
	}
	return map[string]any{
		"error":      "Request validation failed",
		"violations": violations,
	}
}
