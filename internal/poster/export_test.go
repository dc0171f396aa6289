package poster

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SetSleep replaces the pause used between thread items.
func SetSleep(p *Poster, fn func(ctx context.Context, d time.Duration) error) {
	p.sleep = fn
}

// CallsCounter exposes one series of the calls counter.
func CallsCounter(m *Metrics, kind, outcome string) prometheus.Counter {
	return m.calls.WithLabelValues(kind, outcome)
}
