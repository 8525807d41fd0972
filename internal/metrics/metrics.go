// Package metrics exposes the terminal's operational counters on a
// private prometheus registry, served from the status endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	CheckoutCommitted prometheus.Counter
	CheckoutRejected  prometheus.Counter
	CheckoutFailed    prometheus.Counter
	CheckoutLatency   prometheus.Histogram
	CatalogFallbacks  prometheus.Counter
	CatalogRefreshes  prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	committed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pos_checkout_committed_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "pos_checkout_rejected_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pos_checkout_failed_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_checkout_submit_seconds",
		Buckets: prometheus.DefBuckets,
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "pos_catalog_cache_fallbacks_total"})
	refreshes := prometheus.NewCounter(prometheus.CounterOpts{Name: "pos_catalog_refreshes_total"})

	r.MustRegister(committed, rejected, failed, latency, fallbacks, refreshes)

	return &Registry{
		reg:               r,
		CheckoutCommitted: committed,
		CheckoutRejected:  rejected,
		CheckoutFailed:    failed,
		CheckoutLatency:   latency,
		CatalogFallbacks:  fallbacks,
		CatalogRefreshes:  refreshes,
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Checkout reporting hooks, in the shape the orchestrator expects.

func (r *Registry) SaleCommitted(d time.Duration) {
	r.CheckoutCommitted.Inc()
	r.CheckoutLatency.Observe(d.Seconds())
}

func (r *Registry) SaleRejected() {
	r.CheckoutRejected.Inc()
}

func (r *Registry) SaleFailed() {
	r.CheckoutFailed.Inc()
}
