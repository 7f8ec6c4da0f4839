package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/raywall/fast-service-mock/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMetrics(t *testing.T) {
	t.Run("Disabled returns Noop", func(t *testing.T) {
		setup, err := SetupMetrics(config.MetricsConf{})
		require.NoError(t, err)

		if _, ok := setup.Provider.(*NoopProvider); !ok {
			t.Errorf("Esperado NoopProvider, recebido %T", setup.Provider)
		}
		assert.Nil(t, setup.Prometheus)
	})

	t.Run("Enabled returns Datadog", func(t *testing.T) {
		cfg := config.MetricsConf{
			Datadog: config.DatadogConf{Enabled: true, Addr: "localhost:8125"},
		}
		setup, err := SetupMetrics(cfg)
		require.NoError(t, err)

		if _, ok := setup.Provider.(*DatadogProvider); !ok {
			t.Errorf("Esperado DatadogProvider, recebido %T", setup.Provider)
		}
	})

	t.Run("Both returns Multi", func(t *testing.T) {
		cfg := config.MetricsConf{
			Datadog:    config.DatadogConf{Enabled: true, Addr: "localhost:8125"},
			Prometheus: config.PrometheusConf{Enabled: true},
		}
		setup, err := SetupMetrics(cfg)
		require.NoError(t, err)

		multi, ok := setup.Provider.(MultiProvider)
		require.True(t, ok, "Esperado MultiProvider, recebido %T", setup.Provider)
		assert.Len(t, multi, 2)
		assert.NotNil(t, setup.Prometheus)
	})
}

func TestPrometheusProvider(t *testing.T) {
	p := NewPrometheusProvider()
	tags := []string{"method:GET", "route:/payments/{}", "status:200"}

	require.NoError(t, p.Count("mock.requests", 1, tags))
	require.NoError(t, p.Count("mock.requests", 1, tags))
	require.NoError(t, p.Histogram("mock.latency_ms", 3.2, tags))
	require.NoError(t, p.Gauge("mock.references", 4, nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.counters["mock.requests"].WithLabelValues("GET", "/payments/{}", "200")))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.gauges["mock.references"].WithLabelValues()))

	// conjunto de labels diferente do registrado é erro
	assert.Error(t, p.Count("mock.requests", 1, []string{"method:GET"}))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `mock_requests{method="GET",route="/payments/{}",status="200"} 2`))
	assert.Contains(t, rec.Body.String(), "mock_latency_ms_bucket")
}

type mockStatsd struct {
	calls []string
	err   error
}

func (m *mockStatsd) Count(name string, value int64, tags []string, rate float64) error {
	m.calls = append(m.calls, "count:"+name)
	return m.err
}
func (m *mockStatsd) Gauge(name string, value float64, tags []string, rate float64) error {
	m.calls = append(m.calls, "gauge:"+name)
	return m.err
}
func (m *mockStatsd) Histogram(name string, value float64, tags []string, rate float64) error {
	m.calls = append(m.calls, "histogram:"+name)
	return m.err
}

func TestMultiProvider_JoinsErrors(t *testing.T) {
	ok := &mockStatsd{}
	failing := &mockStatsd{err: errors.New("udp fechado")}
	multi := MultiProvider{NewDatadogProvider(failing), NewDatadogProvider(ok)}

	err := multi.Count("mock.requests", 1, nil)
	assert.ErrorContains(t, err, "udp fechado")
	assert.Equal(t, []string{"count:mock.requests"}, ok.calls)

	assert.NoError(t, MultiProvider{NewDatadogProvider(ok)}.Histogram("mock.latency_ms", 1, nil))
}
