package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raywall/fast-service-mock/pkg/pipeline"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

// statusRecorder guarda status e bytes enviados para o log da requisição.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	started time.Time
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.written {
		return
	}
	sr.written = true
	sr.status = code
	sr.Header().Set(HeaderLatency, strconv.FormatInt(time.Since(sr.started).Milliseconds(), 10))
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// correlationID reaproveita o id recebido ou gera um novo.
func correlationID(received string) string {
	if received == "" {
		return uuid.NewString()
	}
	return received
}

// ObservabilityMiddleware propaga o correlation id para o log e para o journal
// e registra cada requisição concluída.
func ObservabilityMiddleware(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			corrID := correlationID(r.Header.Get(HeaderCorrelationID))
			w.Header().Set(HeaderCorrelationID, corrID)

			logger := base.With().Str("correlation_id", corrID).Logger()
			ctx := logger.WithContext(r.Context())
			ctx = pipeline.WithCorrelationID(ctx, corrID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK, started: start}
			next.ServeHTTP(rec, r.WithContext(ctx))

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int("bytes", rec.bytes).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Msg("request completed")
		})
	}
}
