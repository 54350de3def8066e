package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the process registry: HTTP metrics fed by the router
// middleware, pipeline metrics fed by the run recorder, and a scrape-time
// gauge over the snapshot store.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	pipelineRuns     prometheus.Counter
	pipelineFailures prometheus.Counter
	lastRunTimestamp prometheus.Gauge
	lastRunDuration  prometheus.Gauge
	statementRows    prometheus.Gauge
	forecastRows     prometheus.Gauge
}

// NewCollector builds the registry. storeMonths is read at scrape time to
// report how many months the snapshot store currently holds; nil skips the
// gauge.
func NewCollector(storeMonths func() float64) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		httpRequestsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "kakeibo_http_requests_total",
			Help: "HTTP requests served, by method, path and status code",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kakeibo_http_request_duration_seconds",
			Help:    "Time taken to serve an HTTP request",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		pipelineRuns: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "kakeibo_pipeline_runs_total",
			Help: "Completed pipeline runs",
		}),
		pipelineFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "kakeibo_pipeline_run_failures_total",
			Help: "Pipeline runs that aborted before writing output",
		}),
		lastRunTimestamp: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "kakeibo_pipeline_last_run_timestamp_seconds",
			Help: "Unix time of the last successful pipeline run",
		}),
		lastRunDuration: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "kakeibo_pipeline_last_run_duration_seconds",
			Help: "Duration of the last successful pipeline run",
		}),
		statementRows: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "kakeibo_pipeline_statement_rows",
			Help: "Joined statement months written by the last run",
		}),
		forecastRows: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "kakeibo_pipeline_forecast_rows",
			Help: "Forecast rows written by the last run",
		}),
	}

	if storeMonths != nil {
		promauto.With(registry).NewGaugeFunc(prometheus.GaugeOpts{
			Name: "kakeibo_store_months",
			Help: "Months currently held in the snapshot store",
		}, storeMonths)
	}
	return c
}

// RecordRun publishes the outcome of a successful pipeline run.
func (c *Collector) RecordRun(statementRows, forecastRows int, duration time.Duration) {
	c.pipelineRuns.Inc()
	c.lastRunTimestamp.SetToCurrentTime()
	c.lastRunDuration.Set(duration.Seconds())
	c.statementRows.Set(float64(statementRows))
	c.forecastRows.Set(float64(forecastRows))
}

// RecordRunFailure counts an aborted run.
func (c *Collector) RecordRunFailure() {
	c.pipelineFailures.Inc()
}

// Middleware observes every request served through the router. The API has
// a fixed path set, so the raw path is safe as a label.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(status)).Inc()
		c.httpRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
