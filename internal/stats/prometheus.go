package stats

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus exports counters as metatiler_tiles_total{source,counter}.
type Prometheus struct {
	vec    *prometheus.CounterVec
	source string
}

// NewPrometheus creates a sink labelled with source and registers its
// collector with reg. A collector already registered under the same
// descriptor (another source sharing the registry) is reused.
func NewPrometheus(reg prometheus.Registerer, source string) (*Prometheus, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metatiler",
		Name:      "tiles_total",
		Help:      "Metatile render and tile encode counters by source.",
	}, []string{"source", "counter"})
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		vec = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return &Prometheus{vec: vec, source: source}, nil
}

func (p *Prometheus) Inc(c Counter) {
	p.vec.WithLabelValues(p.source, c.String()).Inc()
}
