// Package jsonvalue manipula valores JSON genéricos (map[string]any, []any,
// escalares): cópia profunda, normalização de valores vindos de YAML e
// extração por caminho.
package jsonvalue

import (
	"fmt"
	"strconv"
	"strings"
)

// Clone devolve uma cópia profunda de um valor JSON genérico.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Normalize converte estruturas decodificadas de YAML para a forma aceita por
// encoding/json (mapas com chave não-string viram map[string]any). O valor
// devolvido não compartilha mapas nem slices com a entrada.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

// Extract navega no valor usando caminhos do tipo:
//   - "nome" -> campo direto
//   - "dados.empregador" -> objetos aninhados
//   - "itens[0]" -> elemento de array
//   - "itens[1].nome" -> campo de um elemento
//
// Caminho vazio devolve o próprio valor.
func Extract(v any, path string) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return v, nil
	}

	parts, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	current := v
	for i, part := range parts {
		if part.isIndex {
			arr, ok := current.([]any)
			if !ok {
				return nil, fmt.Errorf("esperado array em '%s', encontrado %T", pathUntil(parts, i), current)
			}
			if part.index < 0 || part.index >= len(arr) {
				return nil, fmt.Errorf("índice %d fora do array em '%s'", part.index, pathUntil(parts, i))
			}
			current = arr[part.index]
			continue
		}

		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("esperado objeto em '%s', encontrado %T", pathUntil(parts, i), current)
		}
		value, exists := m[part.field]
		if !exists {
			return nil, fmt.Errorf("campo '%s' não encontrado em '%s'", part.field, pathUntil(parts, i+1))
		}
		current = value
	}
	return current, nil
}

type pathPart struct {
	field   string
	isIndex bool
	index   int
}

func parsePath(path string) ([]pathPart, error) {
	var parts []pathPart
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			continue
		}
		for segment != "" {
			open := strings.IndexByte(segment, '[')
			if open < 0 {
				parts = append(parts, pathPart{field: segment})
				break
			}
			if open > 0 {
				parts = append(parts, pathPart{field: segment[:open]})
			}
			close := strings.IndexByte(segment, ']')
			if close < open {
				return nil, fmt.Errorf("colchete não fechado no caminho '%s'", path)
			}
			idx, err := strconv.Atoi(segment[open+1 : close])
			if err != nil {
				return nil, fmt.Errorf("índice inválido no caminho '%s': %w", path, err)
			}
			parts = append(parts, pathPart{isIndex: true, index: idx})
			segment = segment[close+1:]
		}
	}
	return parts, nil
}

// pathUntil reconstrói o caminho até a parte informada (para mensagens de erro).
func pathUntil(parts []pathPart, until int) string {
	var b strings.Builder
	for i := 0; i < until && i < len(parts); i++ {
		if parts[i].isIndex {
			fmt.Fprintf(&b, "[%d]", parts[i].index)
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(parts[i].field)
	}
	if b.Len() == 0 {
		return "$"
	}
	return b.String()
}
