// Package overrides carrega as respostas fixas configuradas pelo operador.
// Uma entrada vale para um path literal e um método exatos e vence qualquer
// resolução derivada do contrato.
package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/raywall/fast-service-mock/pkg/jsonvalue"
)

// Response é a resposta servida literalmente.
type Response struct {
	Status  int
	Headers map[string]string
	Body    json.RawMessage
}

// entry é o formato do arquivo de overrides.
type entry struct {
	Path    string            `yaml:"path" validate:"required,startswith=/"`
	Method  string            `yaml:"method" validate:"required,oneof=GET PUT POST DELETE OPTIONS HEAD PATCH TRACE get put post delete options head patch trace"`
	Status  int               `yaml:"status" validate:"omitempty,gte=100,lte=599"`
	Headers map[string]string `yaml:"headers"`
	Body    any               `yaml:"body"`
	// Raw é servido byte a byte, sem passar por JSON.
	Raw string `yaml:"raw" validate:"excluded_with=Body"`
}

type document struct {
	Overrides []entry `yaml:"overrides" validate:"dive"`
}

type key struct {
	method string
	path   string
}

// Table é imutável após Load.
type Table struct {
	entries map[key]*Response
}

var structValidator = validator.New()

// Load decodifica o documento de overrides (YAML ou JSON).
func Load(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("arquivo de overrides malformado: %w", err)
	}

	if err := structValidator.Struct(&doc); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var msgs []string
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return nil, fmt.Errorf("arquivo de overrides inválido: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("arquivo de overrides inválido: %w", err)
	}

	table := &Table{entries: make(map[key]*Response, len(doc.Overrides))}
	for i, e := range doc.Overrides {
		k := key{method: strings.ToUpper(e.Method), path: e.Path}
		if _, dup := table.entries[k]; dup {
			return nil, fmt.Errorf("override duplicado para %s %s", k.method, k.path)
		}

		resp := &Response{Status: e.Status, Headers: e.Headers}
		if resp.Status == 0 {
			resp.Status = http.StatusOK
		}

		switch {
		case e.Raw != "":
			resp.Body = json.RawMessage(e.Raw)
		case e.Body != nil:
			body, err := json.Marshal(jsonvalue.Normalize(e.Body))
			if err != nil {
				return nil, fmt.Errorf("override #%d (%s %s): body não serializável: %w", i, k.method, k.path, err)
			}
			resp.Body = body
		default:
			resp.Body = json.RawMessage(`{}`)
		}
		table.entries[k] = resp
	}
	return table, nil
}

// Empty devolve uma tabela sem entradas.
func Empty() *Table {
	return &Table{entries: map[key]*Response{}}
}

// Lookup procura o override exato para (método, path). O Response devolvido é
// uma cópia e pode ser alterado pelo chamador.
func (t *Table) Lookup(method, path string) (*Response, bool) {
	if t == nil {
		return nil, false
	}
	resp, ok := t.entries[key{method: strings.ToUpper(method), path: path}]
	if !ok {
		return nil, false
	}
	out := &Response{Status: resp.Status, Body: append(json.RawMessage(nil), resp.Body...)}
	if len(resp.Headers) > 0 {
		out.Headers = make(map[string]string, len(resp.Headers))
		for k, v := range resp.Headers {
			out.Headers[k] = v
		}
	}
	return out, true
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
