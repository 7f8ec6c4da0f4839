package routes

import "fmt"

// ContractStructureError indica um contrato que não pode virar tabela de rotas.
// É fatal na inicialização.
type ContractStructureError struct {
	Path   string
	Method string
	Reason string
}

func (e *ContractStructureError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("estrutura de contrato inválida: %s", e.Reason)
	case e.Method == "":
		return fmt.Sprintf("estrutura de contrato inválida em '%s': %s", e.Path, e.Reason)
	default:
		return fmt.Sprintf("estrutura de contrato inválida em '%s %s': %s", e.Method, e.Path, e.Reason)
	}
}

func structureError(path, method, format string, args ...any) error {
	return &ContractStructureError{Path: path, Method: method, Reason: fmt.Sprintf(format, args...)}
}
