package contract

import (
	"sort"
	"strings"
)

// Schema é o subconjunto de JSON Schema (dialeto OpenAPI 3.0) usado para validar
// requisições e sintetizar respostas.
type Schema struct {
	Ref string `yaml:"$ref"`

	Type        string `yaml:"type"`
	Format      string `yaml:"format"`
	Description string `yaml:"description"`
	Nullable    bool   `yaml:"nullable"`

	Enum    []any `yaml:"enum"`
	Example any   `yaml:"example"`
	Default any   `yaml:"default"`

	Properties           map[string]*Schema `yaml:"properties"`
	Required             []string           `yaml:"required"`
	AdditionalProperties any                `yaml:"additionalProperties"`
	Items                *Schema            `yaml:"items"`

	Minimum          *float64 `yaml:"minimum"`
	Maximum          *float64 `yaml:"maximum"`
	ExclusiveMinimum bool     `yaml:"exclusiveMinimum"`
	ExclusiveMaximum bool     `yaml:"exclusiveMaximum"`
	MultipleOf       *float64 `yaml:"multipleOf"`
	MinLength        *int     `yaml:"minLength"`
	MaxLength        *int     `yaml:"maxLength"`
	Pattern          string   `yaml:"pattern"`
	MinItems         *int     `yaml:"minItems"`
	MaxItems         *int     `yaml:"maxItems"`
	UniqueItems      bool     `yaml:"uniqueItems"`
	MinProperties    *int     `yaml:"minProperties"`
	MaxProperties    *int     `yaml:"maxProperties"`

	AllOf []*Schema `yaml:"allOf"`
	OneOf []*Schema `yaml:"oneOf"`
	AnyOf []*Schema `yaml:"anyOf"`
	Not   *Schema   `yaml:"not"`

	// target é preenchido por Validate quando Ref aponta para components.schemas.
	target *Schema
}

// maxRefHops limita cadeias de $ref que apontam para outros $ref.
const maxRefHops = 32

// Deref segue a cadeia de $ref já resolvida e devolve o schema concreto.
func (s *Schema) Deref() *Schema {
	cur := s
	for hops := 0; cur != nil && cur.Ref != "" && cur.target != nil && hops < maxRefHops; hops++ {
		cur = cur.target
	}
	return cur
}

// InferredType devolve o tipo declarado ou, na ausência dele, o tipo implícito
// pelas palavras-chave presentes.
func (s *Schema) InferredType() string {
	if s == nil {
		return ""
	}
	if s.Type != "" {
		return s.Type
	}
	switch {
	case len(s.Properties) > 0 || len(s.Required) > 0:
		return "object"
	case s.Items != nil:
		return "array"
	}
	return ""
}

// IsClosed indica additionalProperties: false.
func (s *Schema) IsClosed() bool {
	b, ok := s.AdditionalProperties.(bool)
	return ok && !b
}

// IsRequired informa se a propriedade consta em required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// PropertyNames devolve as propriedades em ordem estável.
func (s *Schema) PropertyNames() []string {
	return sortedKeys(s.Properties)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// refName extrai o nome do componente de uma referência local do tipo
// "#/components/<kind>/<name>".
func refName(ref, kind string) (string, bool) {
	prefix := "#/components/" + kind + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, prefix)
	// JSON Pointer escapes
	name = strings.ReplaceAll(name, "~1", "/")
	name = strings.ReplaceAll(name, "~0", "~")
	return name, name != ""
}
