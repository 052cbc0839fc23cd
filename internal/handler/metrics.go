package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the podcast finder backend.
var Metrics = struct {
	SearchesTotal    prometheus.Counter
	FallbackSearches prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	QuotaUnitsUsed   prometheus.Gauge
	QuotaErrors      prometheus.Gauge
	DBPoolActive     prometheus.GaugeFunc
	DBPoolIdle       prometheus.GaugeFunc
}{}

// QuotaReader exposes the tracker counters the gauges need.
type QuotaReader interface {
	Snapshot() (used, errors int)
}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool, quotaReader QuotaReader) {
	Metrics.SearchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "podfinder_searches_total",
			Help: "Total search requests served.",
		},
	)

	Metrics.FallbackSearches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "podfinder_fallback_searches_total",
			Help: "Search requests served from the fallback dataset.",
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "podfinder_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "podfinder_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	prometheus.MustRegister(
		Metrics.SearchesTotal,
		Metrics.FallbackSearches,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
	)

	if quotaReader != nil {
		quotaUsed := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "podfinder_quota_units_used",
				Help: "YouTube API quota units used today.",
			},
			func() float64 {
				used, _ := quotaReader.Snapshot()
				return float64(used)
			},
		)
		quotaErrors := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "podfinder_quota_errors_today",
				Help: "Quota errors from the YouTube API today.",
			},
			func() float64 {
				_, errs := quotaReader.Snapshot()
				return float64(errs)
			},
		)
		prometheus.MustRegister(quotaUsed, quotaErrors)
	}

	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "podfinder_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "podfinder_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method before c.Next(): Fiber hands out strings
		// backed by the fasthttp buffer, which handlers may overwrite.
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	if strings.HasPrefix(path, "/api/") || path == "/metrics" ||
		strings.HasPrefix(path, "/health/") {
		return path
	}
	return "other"
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
