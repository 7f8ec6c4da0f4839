package contract

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parse decodifica um documento JSON ou YAML sem validá-lo.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("documento de contrato malformado: %w", err)
	}
	return &doc, nil
}

// Load combina Parse e Validate, devolvendo um documento normalizado.
func Load(data []byte) (*Document, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate resolve as referências locais e verifica a estrutura do documento.
// Após uma validação bem-sucedida, parâmetros, request bodies e responses
// referenciados via $ref são substituídos pelos componentes e todo schema com
// $ref passa a apontar para o schema de destino (ver Schema.Deref).
func Validate(doc *Document) error {
	if doc == nil {
		return &DocumentError{Problems: []string{"documento vazio"}}
	}

	problems := &DocumentError{}

	// 1. Referências ($ref) precisam ser resolvidas antes da validação por tags,
	// já que um parâmetro referenciado chega sem name/in.
	r := &refResolver{doc: doc, problems: problems, seen: map[*Schema]bool{}}
	r.resolveAll()
	if len(problems.Problems) > 0 {
		return problems
	}

	// 2. Validação estrutural (tags do struct)
	if err := structValidator.Struct(doc); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				problems.add("campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag())
			}
		} else {
			problems.add("erro de validação estrutural: %v", err)
		}
	}

	// 3. Validação semântica dos esquemas de segurança
	for _, name := range sortedKeys(doc.Components.SecuritySchemes) {
		scheme := doc.Components.SecuritySchemes[name]
		if scheme == nil {
			problems.add("securityScheme '%s' vazio", name)
			continue
		}
		switch scheme.Type {
		case "apiKey":
			if scheme.Name == "" {
				problems.add("securityScheme '%s': apiKey exige 'name'", name)
			}
			if scheme.In != "header" && scheme.In != "query" && scheme.In != "cookie" {
				problems.add("securityScheme '%s': apiKey exige 'in' (header, query ou cookie)", name)
			}
		case "http":
			if scheme.Scheme == "" {
				problems.add("securityScheme '%s': http exige 'scheme'", name)
			}
		}
	}

	return problems.orNil()
}

var structValidator = validator.New()

type refResolver struct {
	doc      *Document
	problems *DocumentError
	seen     map[*Schema]bool
}

func (r *refResolver) resolveAll() {
	c := &r.doc.Components

	for _, name := range sortedKeys(c.Schemas) {
		r.schema(c.Schemas[name])
	}
	for _, name := range sortedKeys(c.Parameters) {
		if p := c.Parameters[name]; p != nil {
			r.schema(p.Schema)
		}
	}
	for _, name := range sortedKeys(c.RequestBodies) {
		if b := c.RequestBodies[name]; b != nil {
			r.content(b.Content)
		}
	}
	for _, name := range sortedKeys(c.Responses) {
		if resp := c.Responses[name]; resp != nil {
			r.content(resp.Content)
		}
	}

	for _, path := range sortedKeys(r.doc.Paths) {
		item := r.doc.Paths[path]
		if item == nil {
			continue
		}
		item.Parameters = r.parameters(item.Parameters)
		for _, method := range sortedKeys(item.Operations) {
			op := item.Operations[method]
			if op == nil {
				continue
			}
			op.Parameters = r.parameters(op.Parameters)
			op.RequestBody = r.requestBody(op.RequestBody)
			for _, status := range sortedKeys(op.Responses) {
				op.Responses[status] = r.response(op.Responses[status])
			}
		}
	}
}

func (r *refResolver) parameters(params []*Parameter) []*Parameter {
	out := make([]*Parameter, 0, len(params))
	for _, p := range params {
		if p == nil {
			continue
		}
		if p.Ref != "" {
			name, ok := refName(p.Ref, "parameters")
			target := r.doc.Components.Parameters[name]
			if !ok || target == nil {
				r.problems.add("referência não resolvida: %s", p.Ref)
				continue
			}
			p = target
		}
		r.schema(p.Schema)
		out = append(out, p)
	}
	return out
}

func (r *refResolver) requestBody(b *RequestBody) *RequestBody {
	if b == nil {
		return nil
	}
	if b.Ref != "" {
		name, ok := refName(b.Ref, "requestBodies")
		target := r.doc.Components.RequestBodies[name]
		if !ok || target == nil {
			r.problems.add("referência não resolvida: %s", b.Ref)
			return b
		}
		b = target
	}
	r.content(b.Content)
	return b
}

func (r *refResolver) response(resp *Response) *Response {
	if resp == nil {
		return nil
	}
	if resp.Ref != "" {
		name, ok := refName(resp.Ref, "responses")
		target := r.doc.Components.Responses[name]
		if !ok || target == nil {
			r.problems.add("referência não resolvida: %s", resp.Ref)
			return resp
		}
		resp = target
	}
	r.content(resp.Content)
	return resp
}

func (r *refResolver) content(content map[string]*MediaType) {
	for _, name := range sortedKeys(content) {
		if mt := content[name]; mt != nil {
			r.schema(mt.Schema)
		}
	}
}

func (r *refResolver) schema(s *Schema) {
	if s == nil || r.seen[s] {
		return
	}
	r.seen[s] = true

	if s.Ref != "" {
		name, ok := refName(s.Ref, "schemas")
		target := r.doc.Components.Schemas[name]
		if !ok || target == nil {
			r.problems.add("referência não resolvida: %s", s.Ref)
			return
		}
		s.target = target
		r.schema(target)
		return
	}

	for _, name := range sortedKeys(s.Properties) {
		r.schema(s.Properties[name])
	}
	r.schema(s.Items)
	r.schema(s.Not)
	for _, group := range [][]*Schema{s.AllOf, s.OneOf, s.AnyOf} {
		for _, sub := range group {
			r.schema(sub)
		}
	}
}
