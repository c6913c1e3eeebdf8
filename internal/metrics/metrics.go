package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nhle/threat-console/internal/model"
)

const namespace = "threat_console"

// Metrics holds the alert delivery collectors on a private registry.
// It implements notify.Observer.
type Metrics struct {
	registry *prometheus.Registry

	PollsTotal            *prometheus.CounterVec
	ToastsAdmittedTotal   prometheus.Counter
	AlertsSuppressedTotal *prometheus.CounterVec
	ToastsDismissedTotal  *prometheus.CounterVec
	ActiveToasts          prometheus.Gauge
}

// New registers the collectors plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PollsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Alert poll cycles by outcome.",
		}, []string{"result"}),

		ToastsAdmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toasts_admitted_total",
			Help:      "Alerts surfaced as toasts.",
		}),

		AlertsSuppressedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "New alerts hidden by a disabled category.",
		}, []string{"type"}),

		ToastsDismissedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toasts_dismissed_total",
			Help:      "Toasts removed by the user or by expiry.",
		}, []string{"reason"}),

		ActiveToasts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "toasts_active",
			Help:      "Toasts currently visible.",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) PollCompleted(result string) {
	m.PollsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AlertSuppressed(t model.AlertType) {
	m.AlertsSuppressedTotal.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ToastAdmitted() {
	m.ToastsAdmittedTotal.Inc()
}

func (m *Metrics) ToastDismissed(reason string) {
	m.ToastsDismissedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ToastsActive(n int) {
	m.ActiveToasts.Set(float64(n))
}
