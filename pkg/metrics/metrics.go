package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	_namespace = "image_jinn"
)

// Metrics groups the collectors reported by the lifecycle, variant and task components.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	grantsIssued  prometheus.Counter
	verifications *prometheus.CounterVec
	conversions   *prometheus.CounterVec
	tasks         *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered on prometheus.DefaultRegisterer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})

	return shared
}

// MustNew builds and registers the collectors on reg, reusing already registered ones.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		grantsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "lifecycle",
			Name:      "upload_grants_issued_total",
			Help:      "Number of presigned upload grants issued.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "lifecycle",
			Name:      "verifications_total",
			Help:      "Upload verifications by resulting status.",
		}, []string{"status"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "variant",
			Name:      "resolutions_total",
			Help:      "Variant resolutions by outcome (original, hit, converted, failed).",
		}, []string{"outcome", "extension"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "tasks",
			Name:      "events_total",
			Help:      "Deferred task events by stage (scheduled, published, publish_failed, handled, handle_failed).",
		}, []string{"task", "stage"}),
	}

	m.grantsIssued = register(reg, m.grantsIssued)
	m.verifications = register(reg, m.verifications)
	m.conversions = register(reg, m.conversions)
	m.tasks = register(reg, m.tasks)

	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing
		}
	}

	panic(err)
}

func (m *Metrics) GrantIssued() {
	if m == nil {
		return
	}
	m.grantsIssued.Inc()
}

func (m *Metrics) Verified(status string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(status).Inc()
}

func (m *Metrics) Resolved(outcome, extension string) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(outcome, extension).Inc()
}

func (m *Metrics) Task(name, stage string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(name, stage).Inc()
}
