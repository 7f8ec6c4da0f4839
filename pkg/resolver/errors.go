package resolver

import "fmt"

// NotFoundError indica que a referência pedida por uma operação "retrieve"
// nunca foi emitida.
type NotFoundError struct {
	Reference string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("referência '%s' não encontrada", e.Reference)
}

// ResolutionGapError indica que o status escolhido não tem definição de
// resposta no contrato.
type ResolutionGapError struct {
	Operation string
	Status    int
}

func (e *ResolutionGapError) Error() string {
	return fmt.Sprintf("No response defined for status %d", e.Status)
}
