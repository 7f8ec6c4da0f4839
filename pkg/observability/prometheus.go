package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusProvider cria os coletores sob demanda, um por nome de métrica.
// Tags no formato "chave:valor" viram labels; o conjunto de chaves de uma
// métrica é fixado na primeira emissão.
type PrometheusProvider struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusProvider() *PrometheusProvider {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return &PrometheusProvider{
		registry:   registry,
		counters:   map[string]*prometheus.CounterVec{},
		gauges:     map[string]*prometheus.GaugeVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
}

// Handler expõe as métricas no formato de exposição do Prometheus.
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry é usado em testes para coletar os valores.
func (p *PrometheusProvider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusProvider) Count(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: metricName(name), Help: name}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return err
		}
		p.counters[name] = vec
	}
	p.mu.Unlock()

	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return err
	}
	c.Add(value)
	return nil
}

func (p *PrometheusProvider) Gauge(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: metricName(name), Help: name}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return err
		}
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	g, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return err
	}
	g.Set(value)
	return nil
}

func (p *PrometheusProvider) Histogram(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName(name),
			Help:    name,
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms a ~2s
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return err
		}
		p.histograms[name] = vec
	}
	p.mu.Unlock()

	h, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return err
	}
	h.Observe(value)
	return nil
}

// metricName troca separadores não aceitos pelo Prometheus ("mock.requests" -> "mock_requests").
func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func splitTags(tags []string) ([]string, []string) {
	keys := make([]string, 0, len(tags))
	values := make([]string, 0, len(tags))
	for _, tag := range tags {
		k, v, _ := strings.Cut(tag, ":")
		keys = append(keys, metricName(k))
		values = append(values, v)
	}
	return keys, values
}
