package contract

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var compiled sync.Map // *Schema -> *openapi3.Schema

// OpenAPI devolve o schema equivalente no modelo do kin-openapi, com as
// referências já resolvidas em ponteiros. O resultado é memorizado por schema.
//
// Schemas sem tipo (nem declarado nem implícito) aceitam null, como no
// comportamento histórico do mock.
func (s *Schema) OpenAPI() *openapi3.Schema {
	if s == nil {
		return nil
	}
	if cached, ok := compiled.Load(s); ok {
		return cached.(*openapi3.Schema)
	}
	out := (&schemaCompiler{memo: map[*Schema]*openapi3.Schema{}}).compile(s)
	actual, _ := compiled.LoadOrStore(s, out)
	return actual.(*openapi3.Schema)
}

type schemaCompiler struct {
	memo map[*Schema]*openapi3.Schema
}

func (c *schemaCompiler) ref(s *Schema) *openapi3.SchemaRef {
	if s == nil {
		return nil
	}
	return openapi3.NewSchemaRef("", c.compile(s))
}

func (c *schemaCompiler) refs(group []*Schema) openapi3.SchemaRefs {
	if len(group) == 0 {
		return nil
	}
	out := make(openapi3.SchemaRefs, 0, len(group))
	for _, sub := range group {
		if sub != nil {
			out = append(out, c.ref(sub))
		}
	}
	return out
}

func (c *schemaCompiler) compile(s *Schema) *openapi3.Schema {
	src := s.Deref()
	if src == nil || src.Ref != "" {
		// $ref não resolvido: aceita qualquer valor
		return &openapi3.Schema{Nullable: true}
	}
	if out, ok := c.memo[src]; ok {
		return out
	}

	out := &openapi3.Schema{}
	// registrado antes dos filhos para suportar schemas recursivos
	c.memo[src] = out

	if t := src.InferredType(); t != "" {
		out.Type = &openapi3.Types{t}
	} else {
		out.Nullable = true
	}
	out.Nullable = out.Nullable || src.Nullable
	out.Format = src.Format
	out.Description = src.Description
	out.Enum = numericEnum(src.Enum)

	out.Min, out.Max = src.Minimum, src.Maximum
	out.ExclusiveMin, out.ExclusiveMax = src.ExclusiveMinimum, src.ExclusiveMaximum
	out.MultipleOf = src.MultipleOf

	if src.MinLength != nil && *src.MinLength > 0 {
		out.MinLength = uint64(*src.MinLength)
	}
	out.MaxLength = optionalUint(src.MaxLength)
	if src.Pattern != "" {
		// padrões fora da sintaxe RE2 são ignorados
		if _, err := regexp.Compile(src.Pattern); err == nil {
			out.Pattern = src.Pattern
		}
	}

	if src.MinItems != nil && *src.MinItems > 0 {
		out.MinItems = uint64(*src.MinItems)
	}
	out.MaxItems = optionalUint(src.MaxItems)
	out.UniqueItems = src.UniqueItems
	out.Items = c.ref(src.Items)

	if src.MinProperties != nil && *src.MinProperties > 0 {
		out.MinProps = uint64(*src.MinProperties)
	}
	out.MaxProps = optionalUint(src.MaxProperties)
	out.Required = src.Required
	if len(src.Properties) > 0 {
		out.Properties = make(openapi3.Schemas, len(src.Properties))
		for _, name := range src.PropertyNames() {
			if prop := src.Properties[name]; prop != nil {
				out.Properties[name] = c.ref(prop)
			}
		}
	}
	if src.IsClosed() {
		closed := false
		out.AdditionalProperties = openapi3.AdditionalProperties{Has: &closed}
	}

	out.AllOf = c.refs(src.AllOf)
	out.OneOf = c.refs(src.OneOf)
	out.AnyOf = c.refs(src.AnyOf)
	out.Not = c.ref(src.Not)
	return out
}

func optionalUint(v *int) *uint64 {
	if v == nil || *v < 0 {
		return nil
	}
	u := uint64(*v)
	return &u
}

// numericEnum converte inteiros vindos do YAML para float64, que é o tipo que o
// encoding/json produz para números.
func numericEnum(enum []any) []any {
	if len(enum) == 0 {
		return nil
	}
	out := make([]any, len(enum))
	for i, v := range enum {
		switch n := v.(type) {
		case int:
			out[i] = float64(n)
		case int64:
			out[i] = float64(n)
		case uint64:
			out[i] = float64(n)
		case map[any]any:
			m := make(map[string]any, len(n))
			for k, item := range n {
				m[fmt.Sprint(k)] = item
			}
			out[i] = m
		default:
			out[i] = v
		}
	}
	return out
}
