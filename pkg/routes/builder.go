package routes

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/raywall/fast-service-mock/pkg/contract"
)

// statusRange casa faixas como "2XX", que o mock não serve.
var statusRange = regexp.MustCompile(`^[1-5][xX]{2}$`)

var allowedMethods = map[string]bool{
	"GET":     true,
	"PUT":     true,
	"POST":    true,
	"DELETE":  true,
	"OPTIONS": true,
	"HEAD":    true,
	"PATCH":   true,
	"TRACE":   true,
}

// Build converte o documento de contrato na tabela de rotas ordenada por
// precedência. Qualquer inconsistência estrutural interrompe o build.
func Build(doc *contract.Document) (*Table, error) {
	if doc == nil {
		return nil, structureError("", "", "documento ausente")
	}
	if len(doc.Paths) == 0 {
		return nil, structureError("", "", "nenhum path declarado")
	}

	table := &Table{schemes: map[string]*contract.SecurityScheme{}}
	byKey := map[string]*OperationDescriptor{}

	for _, path := range sortedPaths(doc.Paths) {
		item := doc.Paths[path]
		if item == nil {
			return nil, structureError(path, "", "path item vazio")
		}

		tmpl, err := ParseTemplate(path)
		if err != nil {
			return nil, structureError(path, "", "%v", err)
		}

		for _, key := range sortedMethods(item.Operations) {
			method := strings.ToUpper(key)
			if !allowedMethods[method] {
				return nil, structureError(path, key, "método HTTP desconhecido")
			}

			op, err := buildOperation(doc, path, method, tmpl, item, item.Operations[key])
			if err != nil {
				return nil, err
			}

			if prev, dup := byKey[op.Key()]; dup {
				return nil, structureError(path, method, "template equivalente a '%s' já declarado", prev.Template.Raw)
			}
			byKey[op.Key()] = op
			table.ops = append(table.ops, op)

			for _, name := range op.Security {
				table.schemes[name] = doc.Components.SecuritySchemes[name]
			}
		}
	}

	table.sort()
	return table, nil
}

func buildOperation(doc *contract.Document, path, method string, tmpl PathTemplate, item *contract.PathItem, op *contract.Operation) (*OperationDescriptor, error) {
	if op == nil {
		return nil, structureError(path, method, "operação vazia")
	}

	desc := &OperationDescriptor{
		ID:        op.OperationID,
		Method:    method,
		Template:  tmpl,
		Responses: map[int]*ResponseDef{},
	}
	if desc.ID == "" {
		desc.ID = method + " " + path
	}

	// 1. Parâmetros (operation sobrescreve path-level pela chave in+name)
	params, err := mergeParameters(path, method, tmpl, item.Parameters, op.Parameters)
	if err != nil {
		return nil, err
	}
	desc.Parameters = params

	// 2. Request body
	if op.RequestBody != nil {
		body := &RequestBody{Required: op.RequestBody.Required}
		if mt := contract.JSONBody(op.RequestBody.Content); mt != nil {
			body.Schema = mt.Schema
			body.MediaType = mediaTypeName(op.RequestBody.Content, mt)
		}
		desc.RequestBody = body
	}

	// 3. Segurança: a da operação substitui a global, mesmo quando vazia
	reqs := doc.Security
	if op.Security != nil {
		reqs = *op.Security
	}
	names, err := securityNames(doc, path, method, reqs)
	if err != nil {
		return nil, err
	}
	desc.Security = names

	// 4. Respostas
	for key, resp := range op.Responses {
		def := responseDef(resp)
		if key == "default" {
			desc.Default = def
			continue
		}
		if statusRange.MatchString(key) {
			desc.IgnoredResponses = append(desc.IgnoredResponses, key)
			continue
		}
		status, err := strconv.Atoi(key)
		if err != nil || status < 100 || status > 599 {
			return nil, structureError(path, method, "código de status inválido '%s'", key)
		}
		desc.Responses[status] = def
		desc.Statuses = append(desc.Statuses, status)
	}
	sort.Ints(desc.Statuses)
	sort.Strings(desc.IgnoredResponses)

	// 5. Comportamento
	desc.Behavior, err = behaviorOf(path, method, tmpl, op)
	if err != nil {
		return nil, err
	}

	return desc, nil
}

func behaviorOf(path, method string, tmpl PathTemplate, op *contract.Operation) (Behavior, error) {
	switch {
	case op.Store != nil && op.Retrieve != nil:
		return nil, structureError(path, method, "x-mock-store e x-mock-retrieve são mutuamente exclusivos")
	case op.Store != nil:
		return Store{ReferenceField: op.Store.ReferenceField}, nil
	case op.Retrieve != nil:
		source := op.Retrieve.SourceParam
		if source == "" {
			return nil, structureError(path, method, "x-mock-retrieve exige 'sourceParam'")
		}
		if !tmpl.HasParam(source) {
			return nil, structureError(path, method, "sourceParam '%s' não é um parâmetro do path", source)
		}
		return Retrieve{SourceParam: source}, nil
	default:
		return Plain{}, nil
	}
}

func mergeParameters(path, method string, tmpl PathTemplate, level, own []*contract.Parameter) ([]Parameter, error) {
	type key struct{ in, name string }

	var order []key
	merged := map[key]Parameter{}
	add := func(p *contract.Parameter) {
		k := key{p.In, p.Name}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] = Parameter{Name: p.Name, In: p.In, Required: p.Required, Schema: p.Schema}
	}

	for _, p := range level {
		add(p)
	}
	for _, p := range own {
		add(p)
	}

	for _, k := range order {
		if k.in == "path" && !tmpl.HasParam(k.name) {
			return nil, structureError(path, method, "parâmetro de path '%s' não aparece no template", k.name)
		}
	}

	// Parâmetros do template sem declaração viram strings obrigatórias
	for _, name := range tmpl.Params() {
		k := key{"path", name}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
			merged[k] = Parameter{Name: name, In: "path", Required: true}
		}
	}

	out := make([]Parameter, 0, len(order))
	for _, k := range order {
		p := merged[k]
		if p.In == "path" {
			p.Required = true
		}
		out = append(out, p)
	}
	return out, nil
}

func securityNames(doc *contract.Document, path, method string, reqs []contract.SecurityRequirement) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, req := range reqs {
		for name := range req {
			if seen[name] {
				continue
			}
			if _, ok := doc.Components.SecuritySchemes[name]; !ok {
				return nil, structureError(path, method, "esquema de segurança '%s' não declarado", name)
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func responseDef(resp *contract.Response) *ResponseDef {
	def := &ResponseDef{}
	if resp == nil {
		return def
	}
	def.Description = resp.Description

	mt := contract.JSONBody(resp.Content)
	if mt == nil {
		return def
	}
	def.Schema = mt.Schema
	switch {
	case mt.Example != nil:
		def.Example, def.HasExample = mt.Example, true
	case len(mt.Examples) > 0:
		// primeiro exemplo nomeado em ordem alfabética
		names := make([]string, 0, len(mt.Examples))
		for name := range mt.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ex := mt.Examples[name]; ex != nil && ex.Value != nil {
				def.Example, def.HasExample = ex.Value, true
				break
			}
		}
	case mt.Schema != nil && mt.Schema.Deref() != nil && mt.Schema.Deref().Example != nil:
		def.Example, def.HasExample = mt.Schema.Deref().Example, true
	}
	return def
}

func mediaTypeName(content map[string]*contract.MediaType, chosen *contract.MediaType) string {
	for name, mt := range content {
		if mt == chosen {
			return name
		}
	}
	return ""
}

func sortedPaths(paths map[string]*contract.PathItem) []string {
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMethods(ops map[string]*contract.Operation) []string {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
