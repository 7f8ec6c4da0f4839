package routes

import (
	"fmt"
	"strings"
)

// Segment é um trecho do path entre barras. Param vazio indica segmento literal;
// caso contrário Literal e Suffix são o texto fixo antes e depois do parâmetro
// (ex: "{name}.json" -> Param "name", Suffix ".json").
type Segment struct {
	Literal string
	Param   string
	Suffix  string
}

func (s Segment) IsParam() bool { return s.Param != "" }

// rank define a precedência: literal, depois segmento misto, depois parâmetro puro.
func (s Segment) rank() int {
	switch {
	case !s.IsParam():
		return 0
	case s.Literal != "" || s.Suffix != "":
		return 1
	default:
		return 2
	}
}

func (s Segment) canonical() string {
	if !s.IsParam() {
		return s.Literal
	}
	return s.Literal + "{}" + s.Suffix
}

func (s Segment) match(value string) (string, bool) {
	if !s.IsParam() {
		return "", value == s.Literal
	}
	if len(value) <= len(s.Literal)+len(s.Suffix) {
		return "", false
	}
	if !strings.HasPrefix(value, s.Literal) || !strings.HasSuffix(value, s.Suffix) {
		return "", false
	}
	return value[len(s.Literal) : len(value)-len(s.Suffix)], true
}

// PathTemplate é o template normalizado de uma operação.
type PathTemplate struct {
	Raw      string
	Segments []Segment
}

// ParseTemplate converte "/payments/{reference}" em segmentos.
func ParseTemplate(raw string) (PathTemplate, error) {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return PathTemplate{}, fmt.Errorf("path deve começar com '/'")
	}

	tmpl := PathTemplate{Raw: raw}
	seen := map[string]bool{}
	for _, part := range splitPath(raw) {
		seg, err := parseSegment(part)
		if err != nil {
			return PathTemplate{}, err
		}
		if seg.IsParam() {
			if seen[seg.Param] {
				return PathTemplate{}, fmt.Errorf("parâmetro '%s' repetido no path", seg.Param)
			}
			seen[seg.Param] = true
		}
		tmpl.Segments = append(tmpl.Segments, seg)
	}
	return tmpl, nil
}

func parseSegment(part string) (Segment, error) {
	open := strings.IndexByte(part, '{')
	close := strings.IndexByte(part, '}')

	if open < 0 && close < 0 {
		return Segment{Literal: part}, nil
	}
	if open < 0 || close < open {
		return Segment{}, fmt.Errorf("segmento '%s' com chaves desbalanceadas", part)
	}
	if strings.Count(part, "{") > 1 || strings.Count(part, "}") > 1 {
		return Segment{}, fmt.Errorf("segmento '%s' com mais de um parâmetro", part)
	}

	name := part[open+1 : close]
	if strings.TrimSpace(name) == "" {
		return Segment{}, fmt.Errorf("segmento '%s' com parâmetro sem nome", part)
	}
	return Segment{Literal: part[:open], Param: name, Suffix: part[close+1:]}, nil
}

func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Canonical devolve a forma canônica usada para detectar templates equivalentes
// (ex: "/payments/{id}" e "/payments/{reference}" -> "/payments/{}").
func (t PathTemplate) Canonical() string {
	if len(t.Segments) == 0 {
		return "/"
	}
	parts := make([]string, len(t.Segments))
	for i, seg := range t.Segments {
		parts[i] = seg.canonical()
	}
	return "/" + strings.Join(parts, "/")
}

// Params lista os nomes de parâmetros na ordem em que aparecem.
func (t PathTemplate) Params() []string {
	var names []string
	for _, seg := range t.Segments {
		if seg.IsParam() {
			names = append(names, seg.Param)
		}
	}
	return names
}

// HasParam informa se o template declara o parâmetro.
func (t PathTemplate) HasParam(name string) bool {
	for _, seg := range t.Segments {
		if seg.Param == name {
			return true
		}
	}
	return false
}

// Match compara um path concreto com o template e extrai os parâmetros.
func (t PathTemplate) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(t.Segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range t.Segments {
		value, ok := seg.match(parts[i])
		if !ok {
			return nil, false
		}
		if seg.IsParam() {
			if params == nil {
				params = make(map[string]string, len(t.Segments))
			}
			params[seg.Param] = value
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

// compareTemplates ordena segmento a segmento: menor rank primeiro, literais em
// ordem alfabética, e por fim templates mais curtos.
func compareTemplates(a, b PathTemplate) int {
	for i := 0; i < len(a.Segments) && i < len(b.Segments); i++ {
		sa, sb := a.Segments[i], b.Segments[i]
		if ra, rb := sa.rank(), sb.rank(); ra != rb {
			return ra - rb
		}
		if ca, cb := sa.canonical(), sb.canonical(); ca != cb {
			return strings.Compare(ca, cb)
		}
	}
	return len(a.Segments) - len(b.Segments)
}
