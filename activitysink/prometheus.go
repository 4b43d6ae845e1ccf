package activitysink

import (
	"context"

	accounts "github.com/goliatone/go-accounts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counts activity events by type
type Prometheus struct {
	events *prometheus.CounterVec
}

var _ accounts.ActivitySink = (*Prometheus)(nil)

// NewPrometheus registers the counters with reg, the default registerer when nil
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Prometheus{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "accounts",
			Name:      "activity_events_total",
			Help:      "Account activity events by type.",
		}, []string{"event"}),
	}
}

func (p *Prometheus) Record(_ context.Context, event accounts.ActivityEvent) error {
	p.events.WithLabelValues(string(event.EventType)).Inc()
	return nil
}
