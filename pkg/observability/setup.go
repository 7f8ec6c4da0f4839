package observability

import (
	"errors"
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/raywall/fast-service-mock/pkg/config"
	"github.com/raywall/fast-service-mock/pkg/metrics"
)

// NoopProvider é um placeholder para quando métricas estão desabilitadas.
type NoopProvider struct{}

func (n *NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }

// StatsdClient é o subconjunto do cliente statsd usado pelo provider.
type StatsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
}

// DatadogProvider adapta a lib oficial do Datadog para nossa interface.
type DatadogProvider struct {
	client StatsdClient
}

func NewDatadogProvider(client StatsdClient) *DatadogProvider {
	return &DatadogProvider{client: client}
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// MultiProvider repassa cada métrica para todos os providers.
type MultiProvider []metrics.Provider

func (m MultiProvider) Count(name string, value float64, tags []string) error {
	return m.each(func(p metrics.Provider) error { return p.Count(name, value, tags) })
}

func (m MultiProvider) Gauge(name string, value float64, tags []string) error {
	return m.each(func(p metrics.Provider) error { return p.Gauge(name, value, tags) })
}

func (m MultiProvider) Histogram(name string, value float64, tags []string) error {
	return m.each(func(p metrics.Provider) error { return p.Histogram(name, value, tags) })
}

func (m MultiProvider) each(fn func(metrics.Provider) error) error {
	var errs []error
	for _, p := range m {
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup contém o provider ativo e, quando habilitado, o provider Prometheus
// cujo handler é exposto pelo transporte.
type Setup struct {
	Provider   metrics.Provider
	Prometheus *PrometheusProvider
}

// SetupMetrics inicializa os providers habilitados no YAML.
func SetupMetrics(cfg config.MetricsConf) (*Setup, error) {
	var providers MultiProvider
	setup := &Setup{}

	if cfg.Datadog.Enabled {
		opts := []statsd.Option{
			statsd.WithNamespace(cfg.Datadog.Namespace),
		}
		client, err := statsd.New(cfg.Datadog.Addr, opts...)
		if err != nil {
			return nil, fmt.Errorf("falha ao conectar no datadog statsd: %w", err)
		}
		providers = append(providers, NewDatadogProvider(client))
	}

	if cfg.Prometheus.Enabled {
		setup.Prometheus = NewPrometheusProvider()
		providers = append(providers, setup.Prometheus)
	}

	switch len(providers) {
	case 0:
		setup.Provider = &NoopProvider{}
	case 1:
		setup.Provider = providers[0]
	default:
		setup.Provider = providers
	}
	return setup, nil
}
