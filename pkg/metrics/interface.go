package metrics

// Provider define o contrato para envio de métricas.
// Isso permite trocar Datadog por Prometheus sem alterar o pipeline.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// Nomes das métricas emitidas por requisição.
const (
	RequestsMetric = "mock.requests"
	LatencyMetric  = "mock.latency_ms"
)
