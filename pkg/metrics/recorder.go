package metrics

import (
	"fmt"
	"time"
)

// Observation descreve uma requisição atendida.
type Observation struct {
	Method  string
	Route   string
	Status  int
	Latency time.Duration
}

// Recorder traduz observações do pipeline em chamadas ao Provider.
type Recorder struct {
	provider Provider
}

func NewRecorder(provider Provider) *Recorder {
	return &Recorder{provider: provider}
}

// Observe registra o contador e a latência. Os erros do provider são devolvidos
// agregados, mas o chamador não deve alterar a resposta por causa deles.
func (r *Recorder) Observe(o Observation) error {
	if r == nil || r.provider == nil {
		return nil
	}
	tags := []string{
		"method:" + o.Method,
		"route:" + o.Route,
		fmt.Sprintf("status:%d", o.Status),
	}

	countErr := r.provider.Count(RequestsMetric, 1, tags)
	histErr := r.provider.Histogram(LatencyMetric, float64(o.Latency.Microseconds())/1000, tags)

	if countErr != nil {
		return fmt.Errorf("falha ao registrar %s: %w", RequestsMetric, countErr)
	}
	if histErr != nil {
		return fmt.Errorf("falha ao registrar %s: %w", LatencyMetric, histErr)
	}
	return nil
}
