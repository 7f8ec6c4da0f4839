// Package resolver decide o conteúdo de cada resposta do mock seguindo a
// precedência: override estático, recuperação por referência, status pedido,
// exemplo do contrato, síntese por schema e, por fim, objeto vazio.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/raywall/fast-service-mock/pkg/contract"
	"github.com/raywall/fast-service-mock/pkg/exchange"
	"github.com/raywall/fast-service-mock/pkg/jsonvalue"
	"github.com/raywall/fast-service-mock/pkg/linkage"
	"github.com/raywall/fast-service-mock/pkg/overrides"
	"github.com/raywall/fast-service-mock/pkg/routes"
)

// DefaultStatusHeader é o header de controle que escolhe o status da resposta.
const DefaultStatusHeader = "X-Mock-Status"

// ReferenceHeader acompanha toda resposta de operação "store".
const ReferenceHeader = "X-Mock-Reference"

// Synthesizer gera um valor conforme ao schema.
type Synthesizer interface {
	Synthesize(schema *contract.Schema) any
}

// Source identifica de onde veio o body resolvido.
type Source string

const (
	SourceOverride  Source = "override"
	SourceRetrieve  Source = "retrieve"
	SourceExample   Source = "example"
	SourceSynthesis Source = "synthesis"
	SourceEmpty     Source = "empty"
)

// Result é a resposta resolvida, ainda independente de transporte.
type Result struct {
	Status    int
	Header    http.Header
	Body      json.RawMessage
	Source    Source
	Reference string
}

type Options struct {
	StatusHeader string
}

// Resolver não guarda estado próprio; o único estado mutável compartilhado é o
// linkage.Store.
type Resolver struct {
	overrides    *overrides.Table
	store        linkage.Store
	synth        Synthesizer
	statusHeader string
	log          zerolog.Logger
}

func New(ov *overrides.Table, store linkage.Store, synth Synthesizer, log zerolog.Logger, opts Options) *Resolver {
	header := opts.StatusHeader
	if header == "" {
		header = DefaultStatusHeader
	}
	return &Resolver{
		overrides:    ov,
		store:        store,
		synth:        synth,
		statusHeader: header,
		log:          log,
	}
}

// Resolve aplica a precedência para a operação já casada e validada. Erros
// *NotFoundError e *ResolutionGapError são convertidos em resposta pelo pipeline.
func (r *Resolver) Resolve(ctx context.Context, op *routes.OperationDescriptor, req *exchange.Request) (*Result, error) {
	// 1. Override estático vence tudo, inclusive o efeito de "store"
	if ov, ok := r.overrides.Lookup(op.Method, req.Path); ok {
		res := &Result{Status: ov.Status, Header: http.Header{}, Body: ov.Body, Source: SourceOverride}
		for name, value := range ov.Headers {
			res.Header.Set(name, value)
		}
		return res, nil
	}

	var store *routes.Store
	switch b := op.Behavior.(type) {
	case routes.Retrieve:
		// 2. Recuperação: nenhuma outra etapa se aplica
		return r.retrieve(ctx, b, req)
	case routes.Store:
		store = &b
	case routes.Plain, nil:
	default:
		return nil, fmt.Errorf("comportamento de operação desconhecido: %T", b)
	}

	// 3. Escolha do status
	status := r.selectStatus(op, req)
	def, ok := op.Response(status)
	if !ok && status == http.StatusOK && len(op.Statuses) == 0 {
		def, ok = op.Default, op.Default != nil
	}
	if !ok {
		gap := &ResolutionGapError{Operation: op.Key(), Status: status}
		r.log.Error().Str("operation", op.Key()).Int("status", status).Msg("Resposta não definida no contrato")
		return nil, gap
	}

	// 4-6. Exemplo, síntese ou objeto vazio
	value, source := r.body(def)

	res := &Result{Status: status, Header: http.Header{}, Source: source}
	if store != nil {
		// 7. Efeito de "store": grava o body da requisição e injeta a referência
		ref, err := r.store.Put(ctx, requestPayload(req.Body))
		if err != nil {
			return nil, fmt.Errorf("falha ao gravar referência para %s: %w", op.Key(), err)
		}
		if obj, isObject := value.(map[string]any); isObject && store.ReferenceField != "" {
			obj[store.ReferenceField] = ref
		}
		res.Reference = ref
		res.Header.Set(ReferenceHeader, ref)
	}

	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("body de %s não serializável: %w", op.Key(), err)
	}
	res.Body = body

	r.log.Debug().
		Str("operation", op.Key()).
		Int("status", status).
		Str("source", string(source)).
		Msg("Resposta resolvida")
	return res, nil
}

func (r *Resolver) retrieve(ctx context.Context, b routes.Retrieve, req *exchange.Request) (*Result, error) {
	ref := req.PathParams[b.SourceParam]
	payload, found, err := r.store.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("falha ao consultar referência '%s': %w", ref, err)
	}
	if !found {
		return nil, &NotFoundError{Reference: ref}
	}
	return &Result{
		Status:    http.StatusOK,
		Header:    http.Header{},
		Body:      payload,
		Source:    SourceRetrieve,
		Reference: ref,
	}, nil
}

// selectStatus: header de controle com status declarado, senão 200, senão o
// menor status declarado. Sem status declarados, 200 (servido pelo default).
func (r *Resolver) selectStatus(op *routes.OperationDescriptor, req *exchange.Request) int {
	if raw := req.Header.Get(r.statusHeader); raw != "" {
		if requested, err := strconv.Atoi(raw); err == nil && op.HasStatus(requested) {
			return requested
		}
	}
	if op.HasStatus(http.StatusOK) || len(op.Statuses) == 0 {
		return http.StatusOK
	}
	return op.Statuses[0]
}

func (r *Resolver) body(def *routes.ResponseDef) (any, Source) {
	if def.HasExample {
		// cópia profunda: a injeção de referência não pode alterar o contrato
		return jsonvalue.Normalize(def.Example), SourceExample
	}
	if def.Schema != nil && r.synth != nil {
		return r.synth.Synthesize(def.Schema), SourceSynthesis
	}
	return map[string]any{}, SourceEmpty
}

// requestPayload devolve o body a ser gravado. Body vazio vira {} e conteúdo
// que não é JSON é gravado como string JSON.
func requestPayload(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, _ := json.Marshal(string(body))
	return encoded
}
