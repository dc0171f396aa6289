package tweet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomePosted        = "posted"
	outcomeFailed        = "failed"
	outcomeNoCredentials = "no_credentials"
)

// Metrics counts firings by outcome and exposes the live job count. A nil
// *Metrics records nothing.
type Metrics struct {
	firings *prometheus.CounterVec
}

// NewMetrics registers the scheduler collectors on reg. jobs is sampled on
// every scrape.
func NewMetrics(reg prometheus.Registerer, jobs func() int) *Metrics {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "tweetcron",
		Subsystem: "scheduler",
		Name:      "jobs",
		Help:      "Number of live recurring jobs.",
	}, func() float64 { return float64(jobs()) })

	return &Metrics{
		firings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tweetcron",
			Subsystem: "scheduler",
			Name:      "firings_total",
			Help:      "Job firings by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) fired(outcome string) {
	if m == nil {
		return
	}
	m.firings.WithLabelValues(outcome).Inc()
}
