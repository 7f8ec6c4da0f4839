// Package journal registra cada requisição atendida pelo mock. Falhas de um
// sink nunca alteram a resposta já decidida.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Entry é o registro de uma requisição atendida.
type Entry struct {
	Time          time.Time       `json:"time"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Method        string          `json:"method"`
	Path          string          `json:"path"`
	Operation     string          `json:"operation,omitempty"`
	Status        int             `json:"status"`
	Source        string          `json:"source,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	LatencyMs     float64         `json:"latency_ms"`
	Body          json.RawMessage `json:"body,omitempty"`
}

type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop descarta as entradas.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// LogSink escreve cada entrada como um evento de log.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "journal").Logger()}
}

func (s *LogSink) Record(_ context.Context, e Entry) error {
	evt := s.logger.Info().
		Str("method", e.Method).
		Str("path", e.Path).
		Int("status", e.Status).
		Float64("latency_ms", e.LatencyMs)
	if e.Operation != "" {
		evt = evt.Str("operation", e.Operation)
	}
	if e.Source != "" {
		evt = evt.Str("source", e.Source)
	}
	if e.Reference != "" {
		evt = evt.Str("reference", e.Reference)
	}
	if e.CorrelationID != "" {
		evt = evt.Str("correlation_id", e.CorrelationID)
	}
	if len(e.Body) > 0 {
		if json.Valid(e.Body) {
			evt = evt.RawJSON("body", e.Body)
		} else {
			evt = evt.Str("body", string(e.Body))
		}
	}
	evt.Msg("request journal")
	return nil
}

// Multi entrega a entrada a todos os sinks, mesmo que algum falhe.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
