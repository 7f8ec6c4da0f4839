package contract

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document é o subconjunto de um documento OpenAPI 3 consumido pelo mock.
type Document struct {
	OpenAPI    string                `yaml:"openapi" validate:"required,startswith=3."`
	Info       Info                  `yaml:"info"`
	Paths      map[string]*PathItem  `yaml:"paths" validate:"required,dive"`
	Components Components            `yaml:"components"`
	Security   []SecurityRequirement `yaml:"security"`
}

type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// SecurityRequirement mapeia nome do esquema -> escopos.
type SecurityRequirement map[string][]string

type Components struct {
	Schemas         map[string]*Schema         `yaml:"schemas"`
	Parameters      map[string]*Parameter      `yaml:"parameters"`
	Responses       map[string]*Response       `yaml:"responses"`
	RequestBodies   map[string]*RequestBody    `yaml:"requestBodies"`
	SecuritySchemes map[string]*SecurityScheme `yaml:"securitySchemes" validate:"dive"`
}

// PathItem agrupa as operações de um path. As chaves de método são mantidas como
// vieram no documento para que o builder consiga reportar métodos inválidos.
type PathItem struct {
	Parameters []*Parameter          `yaml:"parameters" validate:"dive"`
	Operations map[string]*Operation `yaml:"-" validate:"dive"`
}

// UnmarshalYAML separa campos conhecidos do path item das operações.
func (p *PathItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("path item deve ser um objeto (linha %d)", node.Line)
	}

	p.Operations = make(map[string]*Operation)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]

		switch {
		case key == "parameters":
			if err := value.Decode(&p.Parameters); err != nil {
				return fmt.Errorf("parameters: %w", err)
			}
		case key == "summary", key == "description", key == "servers", key == "$ref":
			// ignorados pelo mock
		case strings.HasPrefix(key, "x-"):
			// extensões no nível do path não são consumidas
		default:
			var op Operation
			if err := value.Decode(&op); err != nil {
				return fmt.Errorf("operação '%s': %w", key, err)
			}
			p.Operations[key] = &op
		}
	}
	return nil
}

// Operation descreve um par (método, path).
type Operation struct {
	OperationID string                 `yaml:"operationId"`
	Summary     string                 `yaml:"summary"`
	Parameters  []*Parameter           `yaml:"parameters" validate:"dive"`
	RequestBody *RequestBody           `yaml:"requestBody"`
	Responses   Responses              `yaml:"responses"`
	Security    *[]SecurityRequirement `yaml:"security"`

	Store    *StoreExtension    `yaml:"x-mock-store"`
	Retrieve *RetrieveExtension `yaml:"x-mock-retrieve"`
}

// StoreExtension marca a operação como "armazena o body e emite uma referência".
type StoreExtension struct {
	ReferenceField string `yaml:"referenceField"`
}

// RetrieveExtension marca a operação como "busca um body armazenado por path param".
type RetrieveExtension struct {
	SourceParam string `yaml:"sourceParam"`
}

type Parameter struct {
	Ref      string  `yaml:"$ref"`
	Name     string  `yaml:"name" validate:"required"`
	In       string  `yaml:"in" validate:"required,oneof=path query header cookie"`
	Required bool    `yaml:"required"`
	Schema   *Schema `yaml:"schema"`
	Example  any     `yaml:"example"`
}

type RequestBody struct {
	Ref      string                `yaml:"$ref"`
	Required bool                  `yaml:"required"`
	Content  map[string]*MediaType `yaml:"content"`
}

type Response struct {
	Ref         string                `yaml:"$ref"`
	Description string                `yaml:"description"`
	Content     map[string]*MediaType `yaml:"content"`
}

type MediaType struct {
	Schema   *Schema             `yaml:"schema"`
	Example  any                 `yaml:"example"`
	Examples map[string]*Example `yaml:"examples"`
}

type Example struct {
	Summary string `yaml:"summary"`
	Value   any    `yaml:"value"`
}

// Responses é decodificado a partir do nó YAML para aceitar códigos de status sem aspas.
type Responses map[string]*Response

func (r *Responses) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("responses deve ser um objeto (linha %d)", node.Line)
	}

	out := make(Responses, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var resp Response
		if err := node.Content[i+1].Decode(&resp); err != nil {
			return fmt.Errorf("response '%s': %w", key, err)
		}
		out[key] = &resp
	}
	*r = out
	return nil
}

// SecurityScheme representa um esquema de segurança declarado em components.
type SecurityScheme struct {
	Type   string `yaml:"type" validate:"required,oneof=apiKey http oauth2 openIdConnect"`
	Scheme string `yaml:"scheme"`
	In     string `yaml:"in"`
	Name   string `yaml:"name"`

	// FailureStatus é o status devolvido quando o predicado falha (padrão 401).
	FailureStatus int `yaml:"x-mock-failure-status" validate:"omitempty,gte=400,lt=500"`
	// Predicate substitui a expressão CEL derivada do tipo do esquema.
	Predicate string `yaml:"x-mock-predicate"`
}

// JSONBody devolve o media type preferencial (application/json, ou o primeiro em ordem alfabética).
func JSONBody(content map[string]*MediaType) *MediaType {
	if len(content) == 0 {
		return nil
	}
	if mt, ok := content["application/json"]; ok && mt != nil {
		return mt
	}
	for _, name := range sortedKeys(content) {
		if content[name] != nil {
			return content[name]
		}
	}
	return nil
}
