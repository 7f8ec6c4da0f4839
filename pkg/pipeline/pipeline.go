// Package pipeline é o ponto de entrada único de todos os transportes:
// casa a rota, aplica segurança e validação de schema, resolve a resposta e
// converte qualquer erro por requisição em resposta HTTP.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/raywall/fast-service-mock/pkg/exchange"
	"github.com/raywall/fast-service-mock/pkg/journal"
	"github.com/raywall/fast-service-mock/pkg/metrics"
	"github.com/raywall/fast-service-mock/pkg/resolver"
	"github.com/raywall/fast-service-mock/pkg/routes"
	"github.com/raywall/fast-service-mock/pkg/validation"
)

type correlationKey struct{}

// WithCorrelationID anexa o id de correlação usado no journal.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

type Options struct {
	Journal  journal.Sink
	Recorder *metrics.Recorder
	Logger   zerolog.Logger
}

// Pipeline não guarda estado mutável; pode atender requisições concorrentes.
type Pipeline struct {
	table     *routes.Table
	validator *validation.Validator
	resolver  *resolver.Resolver
	journal   journal.Sink
	recorder  *metrics.Recorder
	log       zerolog.Logger
	now       func() time.Time
}

func New(table *routes.Table, v *validation.Validator, r *resolver.Resolver, opts Options) *Pipeline {
	sink := opts.Journal
	if sink == nil {
		sink = journal.Nop{}
	}
	return &Pipeline{
		table:     table,
		validator: v,
		resolver:  r,
		journal:   sink,
		recorder:  opts.Recorder,
		log:       opts.Logger,
		now:       time.Now,
	}
}

// outcome acumula o que o journal e as métricas precisam saber.
type outcome struct {
	op        *routes.OperationDescriptor
	source    string
	reference string
}

// Handle nunca devolve nil e nunca propaga panic.
func (p *Pipeline) Handle(ctx context.Context, req *exchange.Request) (resp *exchange.Response) {
	start := p.now()
	var out outcome

	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Interface("panic", rec).Str("method", req.Method).Str("path", req.Path).Msg("Panic ao atender requisição")
			resp = exchange.JSON(http.StatusInternalServerError, exchange.ErrorBody("Internal Server Error"))
		}
		p.finish(ctx, req, resp, out, p.now().Sub(start))
	}()

	return p.handle(ctx, req, &out)
}

func (p *Pipeline) handle(ctx context.Context, req *exchange.Request, out *outcome) *exchange.Response {
	// 1. Casamento de rota
	op, params, ok := p.table.Match(req.Method, req.Path)
	if !ok {
		return exchange.JSON(http.StatusNotFound, exchange.ErrorBody("Not found"))
	}
	out.op = op
	req.PathParams = params

	// 2. Segurança
	if err := p.validator.CheckSecurity(op, req); err != nil {
		return p.errorResponse(op, err)
	}

	// 3. Schema
	if err := p.validator.CheckRequest(op, req); err != nil {
		return p.errorResponse(op, err)
	}

	// 4. Resolução
	res, err := p.resolver.Resolve(ctx, op, req)
	if err != nil {
		return p.errorResponse(op, err)
	}
	out.source = string(res.Source)
	out.reference = res.Reference

	resp := exchange.Raw(res.Status, res.Body)
	for name, values := range res.Header {
		for _, v := range values {
			resp.Header.Add(name, v)
		}
	}
	return resp
}

// errorResponse converte os erros por requisição em resposta.
func (p *Pipeline) errorResponse(op *routes.OperationDescriptor, err error) *exchange.Response {
	var vErr *validation.ValidationError
	var notFound *resolver.NotFoundError
	var gap *resolver.ResolutionGapError

	switch {
	case errors.As(err, &vErr):
		p.log.Debug().Str("operation", op.Key()).Int("status", vErr.Status).Msg(vErr.Error())
		return exchange.JSON(vErr.Status, vErr.Payload())
	case errors.As(err, &notFound):
		return exchange.JSON(http.StatusNotFound, exchange.ErrorBody("Not found"))
	case errors.As(err, &gap):
		return exchange.JSON(http.StatusInternalServerError, exchange.ErrorBody(gap.Error()))
	default:
		p.log.Error().Err(err).Str("operation", op.Key()).Msg("Falha ao resolver resposta")
		return exchange.JSON(http.StatusInternalServerError, exchange.ErrorBody("Internal Server Error"))
	}
}

// finish entrega a requisição ao journal e às métricas. Falhas (inclusive
// panics) dos coletores são apenas registradas em log.
func (p *Pipeline) finish(ctx context.Context, req *exchange.Request, resp *exchange.Response, out outcome, latency time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Warn().Interface("panic", rec).Msg("Panic no journal ignorado")
		}
	}()

	route, operation := "unmatched", ""
	if out.op != nil {
		route, operation = out.op.Template.Raw, out.op.Key()
	}

	if err := p.recorder.Observe(metrics.Observation{
		Method:  req.Method,
		Route:   route,
		Status:  resp.Status,
		Latency: latency,
	}); err != nil {
		p.log.Warn().Err(err).Msg("Falha ao registrar métricas")
	}

	entry := journal.Entry{
		Time:          p.now(),
		CorrelationID: CorrelationID(ctx),
		Method:        req.Method,
		Path:          req.Path,
		Operation:     operation,
		Status:        resp.Status,
		Source:        out.source,
		Reference:     out.reference,
		LatencyMs:     float64(latency.Microseconds()) / 1000,
		Body:          resp.Body,
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		p.log.Warn().Err(err).Msg("Falha ao registrar journal")
	}
}
