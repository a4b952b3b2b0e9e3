// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordsEmittedTotal    prometheus.Counter
	detailTasksTotal       *prometheus.CounterVec
	listingPagesTotal      *prometheus.CounterVec
	scrollPassesTotal      prometheus.Counter
	renderPromotionsTotal  prometheus.Counter
	discoveryFailuresTotal prometheus.Counter
	activeDetailWorkers    prometheus.Gauge
	taskDurationSeconds    *prometheus.HistogramVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		recordsEmittedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scrape_records_emitted_total",
				Help: "Total number of job records appended to the sink.",
			},
		)

		detailTasksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_detail_tasks_total",
				Help: "Total number of detail tasks processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		listingPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrape_listing_pages_total",
				Help: "Total number of listing pages scanned, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scrollPassesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scrape_scroll_passes_total",
				Help: "Total number of scroll passes performed on listing pages.",
			},
		)

		renderPromotionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scrape_render_promotions_total",
				Help: "Total number of detail pages promoted from static fetch to browser rendering.",
			},
		)

		discoveryFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scrape_discovery_failures_total",
				Help: "Total number of listing pages that failed discovery.",
			},
		)

		activeDetailWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scrape_active_detail_workers",
				Help: "Number of workers currently processing a detail task.",
			},
		)

		taskDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scrape_task_duration_seconds",
				Help:    "Histogram of task latencies, labeled by task kind.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRecordEmitted increments the emitted record counter.
func ObserveRecordEmitted() {
	recordsEmittedTotal.Inc()
}

// ObserveDetailTask increments the detail task counter for the given outcome.
func ObserveDetailTask(outcome string) {
	detailTasksTotal.WithLabelValues(outcome).Inc()
}

// ObserveListingPage increments the listing page counter for the given outcome.
func ObserveListingPage(outcome string) {
	listingPagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveScrollPass increments the scroll pass counter.
func ObserveScrollPass() {
	scrollPassesTotal.Inc()
}

// ObserveRenderPromotion increments the render promotion counter.
func ObserveRenderPromotion() {
	renderPromotionsTotal.Inc()
}

// ObserveDiscoveryFailure increments the discovery failure counter.
func ObserveDiscoveryFailure() {
	discoveryFailuresTotal.Inc()
}

// IncActiveDetailWorkers increments the active detail workers gauge.
func IncActiveDetailWorkers() {
	activeDetailWorkers.Inc()
}

// DecActiveDetailWorkers decrements the active detail workers gauge.
func DecActiveDetailWorkers() {
	activeDetailWorkers.Dec()
}

// ObserveTaskDuration records the latency of one task.
func ObserveTaskDuration(kind string, duration time.Duration) {
	taskDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
