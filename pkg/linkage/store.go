// Package linkage guarda os bodies aceitos por operações "store" e os devolve
// para operações "retrieve" a partir da referência emitida.
package linkage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Store é a capacidade de armazenamento de referências. Implementações devem ser
// seguras para uso concorrente, e uma referência emitida nunca é reemitida
// durante a vida do store.
type Store interface {
	// Put grava uma cópia do body e devolve uma referência nova.
	Put(ctx context.Context, body json.RawMessage) (string, error)
	// Get devolve o body gravado ou found=false para referências desconhecidas.
	Get(ctx context.Context, reference string) (json.RawMessage, bool, error)
}

// ErrReferenceCollision indica que o backend recusou a inserção porque a
// referência gerada já existia. Com UUIDv4 (122 bits aleatórios) isso só ocorre
// com gerador defeituoso, por isso não há nova tentativa.
var ErrReferenceCollision = errors.New("referência gerada já existe no store")

// newReference é substituível em testes para forçar colisões.
var newReference = func() string {
	return uuid.NewString()
}

// issue gera uma referência e a grava com inserção atômica (só se ausente).
func issue(ctx context.Context, tryPut func(ctx context.Context, ref string) (bool, error)) (string, error) {
	ref := newReference()
	stored, err := tryPut(ctx, ref)
	if err != nil {
		return "", err
	}
	if !stored {
		return "", ErrReferenceCollision
	}
	return ref, nil
}

func cloneBody(body json.RawMessage) json.RawMessage {
	if body == nil {
		return nil
	}
	out := make(json.RawMessage, len(body))
	copy(out, body)
	return out
}

func backendError(backend, op string, err error) error {
	return fmt.Errorf("linkage %s: falha em %s: %w", backend, op, err)
}
