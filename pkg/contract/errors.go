package contract

import (
	"fmt"
	"strings"
)

// DocumentError agrega os problemas estruturais encontrados no documento de contrato.
// É sempre fatal na inicialização.
type DocumentError struct {
	Problems []string
}

func (e *DocumentError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("contrato inválido: %s", e.Problems[0])
	}
	return fmt.Sprintf("contrato inválido:\n- %s", strings.Join(e.Problems, "\n- "))
}

func (e *DocumentError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *DocumentError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
