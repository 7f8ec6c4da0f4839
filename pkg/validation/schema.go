package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/raywall/fast-service-mock/pkg/contract"
)

var unsupportedProperty = regexp.MustCompile(`^property "(.+)" is unsupported$`)

// CheckValue valida um valor JSON genérico contra o schema e devolve as
// violações ordenadas por localização.
func CheckValue(schema *contract.Schema, value any, location string) []Violation {
	compiled := schema.OpenAPI()
	if compiled == nil {
		return nil
	}
	err := compiled.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var out []Violation
	collect(err, value, location, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

func collect(err error, value any, loc string, out *[]Violation) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collect(inner, value, loc, out)
		}
	case *openapi3.SchemaError:
		where := locate(value, loc, e.JSONPointer())
		if e.SchemaField == "properties" {
			if m := unsupportedProperty.FindStringSubmatch(e.Reason); m != nil {
				*out = append(*out, Violation{Location: join(where, m[1]), Message: "propriedade não permitida"})
				return
			}
		}
		*out = append(*out, Violation{Location: where, Message: messageOf(e)})
	default:
		*out = append(*out, Violation{Location: loc, Message: err.Error()})
	}
}

// locate converte o JSON Pointer do erro para a notação usada nas violações
// (campo.sub[0].nome), consultando o valor para distinguir índices de chaves.
func locate(value any, loc string, pointer []string) string {
	cur := value
	for _, seg := range pointer {
		switch node := cur.(type) {
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				loc = join(loc, seg)
				cur = nil
				continue
			}
			loc = fmt.Sprintf("%s[%d]", loc, idx)
			cur = nil
			if idx >= 0 && idx < len(node) {
				cur = node[idx]
			}
		case map[string]any:
			loc = join(loc, seg)
			cur = node[seg]
		default:
			loc = join(loc, seg)
			cur = nil
		}
	}
	return loc
}

func messageOf(se *openapi3.SchemaError) string {
	switch se.SchemaField {
	case "required":
		return "campo obrigatório"
	case "type":
		if se.Schema != nil && se.Schema.Type != nil && len(*se.Schema.Type) > 0 {
			return "deve ser do tipo " + (*se.Schema.Type)[0]
		}
	case "nullable":
		return "não pode ser nulo"
	case "enum":
		if se.Schema != nil {
			return fmt.Sprintf("valor fora do enum %v", se.Schema.Enum)
		}
	case "oneOf", "anyOf":
		return "não corresponde às alternativas: " + se.Reason
	}
	return se.Reason
}

func join(loc, name string) string {
	if loc == "" {
		return name
	}
	return loc + "." + name
}
