// Package metrics exposes Prometheus counters for domain events and
// calendar reconciliation.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neomorfeo/bookflow/internal/app"
	"github.com/neomorfeo/bookflow/internal/domain"
)

const namespace = "bookflow"

// Collector holds the application's Prometheus metrics.
type Collector struct {
	events        *prometheus.CounterVec
	reconciles    prometheus.Counter
	reconciled    *prometheus.CounterVec
	lastCorrected prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Domain events published on the event bus.",
		}, []string{"event"}),
		reconciles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Completed reconciliation sweeps.",
		}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_bookings_total",
			Help:      "Bookings examined by reconciliation, by outcome.",
		}, []string{"outcome"}),
		lastCorrected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconcile_last_corrected",
			Help:      "Bookings corrected by the most recent sweep.",
		}),
	}

	reg.MustRegister(c.events, c.reconciles, c.reconciled, c.lastCorrected)
	return c
}

// ObserveEvent counts a published event. It is subscribed to the bus for
// every domain.Event and never fails.
func (c *Collector) ObserveEvent(_ context.Context, e domain.Event) error {
	c.events.WithLabelValues(e.EventName()).Inc()
	return nil
}

// ObserveReconcile records a sweep report.
func (c *Collector) ObserveReconcile(_ context.Context, r app.ReconcileReport) {
	c.reconciles.Inc()
	c.reconciled.WithLabelValues("cancelled").Add(float64(r.Cancelled))
	c.reconciled.WithLabelValues("rescheduled").Add(float64(r.Rescheduled))
	c.reconciled.WithLabelValues("unchanged").Add(float64(r.Unchanged))
	c.reconciled.WithLabelValues("skipped").Add(float64(r.Skipped))
	c.reconciled.WithLabelValues("failed").Add(float64(r.Failed))
	c.lastCorrected.Set(float64(r.Corrected()))
}

var _ app.ReconcileObserver = (*Collector)(nil)

// Register subscribes the event counter to bus.
func (c *Collector) Register(bus *app.EventBus) {
	app.Subscribe(bus, c.ObserveEvent)
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
