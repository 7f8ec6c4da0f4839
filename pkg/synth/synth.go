// Package synth gera valores de exemplo a partir de schemas do contrato.
package synth

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raywall/fast-service-mock/pkg/contract"
	"github.com/raywall/fast-service-mock/pkg/jsonvalue"
)

const DefaultMaxDepth = 8

// Synthesizer é seguro para uso concorrente.
type Synthesizer struct {
	mu       sync.Mutex
	rng      *rand.Rand
	maxDepth int
	now      func() time.Time
}

type Option func(*Synthesizer)

// WithSeed torna a geração reprodutível.
func WithSeed(seed uint64) Option {
	return func(s *Synthesizer) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithMaxDepth limita a profundidade de objetos e arrays aninhados.
func WithMaxDepth(depth int) Option {
	return func(s *Synthesizer) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithClock fixa o relógio usado nos formatos date e date-time.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		maxDepth: DefaultMaxDepth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize devolve um valor que satisfaz o schema (tipos, required, enum e
// limites). Schema nulo produz um objeto vazio.
func (s *Synthesizer) Synthesize(schema *contract.Schema) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schema == nil {
		return map[string]any{}
	}
	return s.value(schema, 0)
}

func (s *Synthesizer) value(schema *contract.Schema, depth int) any {
	sc := schema.Deref()
	if sc == nil {
		return nil
	}

	// valores declarados no próprio schema têm prioridade
	switch {
	case sc.Example != nil:
		return jsonvalue.Clone(jsonvalue.Normalize(sc.Example))
	case sc.Default != nil:
		return jsonvalue.Clone(jsonvalue.Normalize(sc.Default))
	case len(sc.Enum) > 0:
		return jsonvalue.Normalize(sc.Enum[0])
	}

	if len(sc.AllOf) > 0 {
		return s.allOf(sc, depth)
	}
	if len(sc.OneOf) > 0 {
		return s.value(sc.OneOf[0], depth)
	}
	if len(sc.AnyOf) > 0 {
		return s.value(sc.AnyOf[0], depth)
	}

	switch sc.InferredType() {
	case "object":
		return s.object(sc, depth)
	case "array":
		return s.array(sc, depth)
	case "string":
		return s.str(sc)
	case "integer":
		return s.integer(sc)
	case "number":
		return s.number(sc)
	case "boolean":
		return s.rng.IntN(2) == 1
	default:
		// schema sem tipo: qualquer valor serve
		return map[string]any{}
	}
}

func (s *Synthesizer) object(sc *contract.Schema, depth int) any {
	out := map[string]any{}
	if depth >= s.maxDepth {
		return out
	}
	for _, name := range sc.PropertyNames() {
		prop := sc.Properties[name]
		// propriedades opcionais que recursam para o mesmo schema param antes do limite
		if !sc.IsRequired(name) && depth+1 >= s.maxDepth {
			continue
		}
		out[name] = s.value(prop, depth+1)
	}
	// required sem propriedade declarada
	for _, name := range sc.Required {
		if _, ok := out[name]; !ok {
			out[name] = ""
		}
	}
	return out
}

func (s *Synthesizer) array(sc *contract.Schema, depth int) any {
	lo := 1
	if sc.MinItems != nil {
		lo = *sc.MinItems
	}
	hi := lo + 1
	if lo == 0 {
		hi = 1
	}
	if sc.MaxItems != nil && *sc.MaxItems < hi {
		hi = *sc.MaxItems
	}
	if hi < lo {
		hi = lo
	}

	out := []any{}
	if depth >= s.maxDepth || sc.Items == nil {
		return out
	}
	n := lo
	if hi > lo {
		n = lo + s.rng.IntN(hi-lo+1)
	}
	for i := 0; i < n; i++ {
		out = append(out, s.value(sc.Items, depth+1))
	}
	return out
}

func (s *Synthesizer) allOf(sc *contract.Schema, depth int) any {
	merged := map[string]any{}
	var last any
	for _, part := range sc.AllOf {
		v := s.value(part, depth)
		if m, ok := v.(map[string]any); ok {
			for k, item := range m {
				merged[k] = item
			}
			continue
		}
		last = v
	}
	// propriedades declaradas ao lado do allOf
	if len(sc.Properties) > 0 {
		for k, item := range s.object(sc, depth).(map[string]any) {
			merged[k] = item
		}
	}
	if len(merged) == 0 && last != nil {
		return last
	}
	return merged
}

const letters = "abcdefghijklmnopqrstuvwxyz"

func (s *Synthesizer) str(sc *contract.Schema) any {
	var v string
	switch sc.Format {
	case "uuid":
		v = s.uuid()
	case "date-time":
		v = s.now().UTC().Truncate(time.Second).Format(time.RFC3339)
	case "date":
		v = s.now().UTC().Format("2006-01-02")
	case "email":
		v = s.word(8) + "@example.com"
	case "uri", "url":
		v = "https://example.com/" + s.word(6)
	case "hostname":
		v = s.word(8) + ".example.com"
	case "ipv4":
		v = fmt.Sprintf("10.%d.%d.%d", s.rng.IntN(256), s.rng.IntN(256), 1+s.rng.IntN(254))
	case "ipv6":
		v = fmt.Sprintf("fd00::%x", 1+s.rng.IntN(0xfffe))
	case "byte":
		v = base64.StdEncoding.EncodeToString([]byte(s.word(6)))
	default:
		v = s.word(10)
	}
	return fitLength(v, sc.MinLength, sc.MaxLength)
}

func (s *Synthesizer) word(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(letters[s.rng.IntN(len(letters))])
	}
	return b.String()
}

func (s *Synthesizer) uuid() string {
	var buf [16]byte
	for i := range buf {
		buf[i] = byte(s.rng.Uint32())
	}
	id, err := uuid.FromBytes(buf[:])
	if err != nil {
		return uuid.NewString()
	}
	// versão 4, variante RFC 4122
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id.String()
}

func fitLength(v string, minLen, maxLen *int) string {
	if minLen != nil && len(v) < *minLen {
		v += strings.Repeat("x", *minLen-len(v))
	}
	if maxLen != nil && len(v) > *maxLen {
		v = v[:*maxLen]
	}
	return v
}

func (s *Synthesizer) integer(sc *contract.Schema) any {
	lo, hi := int64(1), int64(1000)
	if sc.Minimum != nil {
		lo = int64(math.Ceil(*sc.Minimum))
		if sc.ExclusiveMinimum && float64(lo) == *sc.Minimum {
			lo++
		}
		if sc.Maximum == nil {
			hi = lo + 1000
		}
	}
	if sc.Maximum != nil {
		hi = int64(math.Floor(*sc.Maximum))
		if sc.ExclusiveMaximum && float64(hi) == *sc.Maximum {
			hi--
		}
		if sc.Minimum == nil && hi < lo {
			lo = hi - 1000
		}
	}
	if hi < lo {
		return lo
	}
	v := lo + s.rng.Int64N(hi-lo+1)
	if sc.MultipleOf != nil && *sc.MultipleOf >= 1 && *sc.MultipleOf == math.Trunc(*sc.MultipleOf) {
		step := int64(*sc.MultipleOf)
		// menor múltiplo >= v; se estourar o máximo, o maior múltiplo <= v
		m := (v + step - 1) / step * step
		if v < 0 {
			m = v / step * step
		}
		if m > hi {
			m -= step
		}
		v = m
	}
	return v
}

func (s *Synthesizer) number(sc *contract.Schema) any {
	lo, hi := 0.0, 1000.0
	if sc.Minimum != nil {
		lo = *sc.Minimum
		if sc.Maximum == nil {
			hi = lo + 1000
		}
	}
	if sc.Maximum != nil {
		hi = *sc.Maximum
		if sc.Minimum == nil && hi < lo {
			lo = hi - 1000
		}
	}
	if sc.ExclusiveMinimum && sc.Minimum != nil {
		lo += 0.01
	}
	if sc.ExclusiveMaximum && sc.Maximum != nil {
		hi -= 0.01
	}
	if hi <= lo {
		return lo
	}
	// duas casas decimais
	v := math.Round((lo+s.rng.Float64()*(hi-lo))*100) / 100
	return math.Min(math.Max(v, lo), hi)
}
