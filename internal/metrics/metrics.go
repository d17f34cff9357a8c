package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockdesk/internal/models"
)

const namespace = "stockdesk"

// Metrics contains all Prometheus metrics for the stock service
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	MovementsTotal *prometheus.CounterVec
	BatchesTotal   *prometheus.CounterVec
	BatchItems     *prometheus.CounterVec
	BatchDuration  *prometheus.HistogramVec
	CacheRequests  *prometheus.CounterVec
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		MovementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "movements_total",
				Help:      "Movements submitted, by type and outcome",
			},
			[]string{"movement_type", "outcome"},
		),
		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Batch actions finished, by movement type and final status",
			},
			[]string{"movement_type", "status"},
		),
		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_items_total",
				Help:      "Items processed by batch actions, by per-item status",
			},
			[]string{"status"},
		),
		BatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Wall time of batch actions in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"movement_type"},
		),
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups, by cache and result",
			},
			[]string{"cache", "result"},
		),
	}
}

// ObserveMovement counts one submitted movement.
func (m *Metrics) ObserveMovement(t models.MovementType, err error) {
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
	}
	m.MovementsTotal.WithLabelValues(string(t), outcome).Inc()
}

// ObserveBatch records a finished batch.
func (m *Metrics) ObserveBatch(result *models.BatchResult, elapsed time.Duration) {
	mt := string(result.MovementType)
	m.BatchesTotal.WithLabelValues(mt, result.Status).Inc()
	m.BatchItems.WithLabelValues(models.BatchItemSuccess).Add(float64(result.SucceededItems))
	m.BatchItems.WithLabelValues(models.BatchItemFailed).Add(float64(result.FailedItems))
	m.BatchItems.WithLabelValues(models.BatchItemSkipped).Add(float64(result.SkippedItems))
	m.BatchDuration.WithLabelValues(mt).Observe(elapsed.Seconds())
}

// ObserveCache records a lookup result: hit, miss or error.
func (m *Metrics) ObserveCache(cache, result string) {
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
