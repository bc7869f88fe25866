package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SubmissionsTotal counts admission outcomes; result is "accepted" or a rejection reason.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprep_submissions_total",
			Help: "Submission attempts by outcome",
		},
		[]string{"result"},
	)

	TestsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprep_tests_ended_total",
			Help: "Tests moved to ended, by trigger",
		},
		[]string{"trigger"},
	)

	SweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blueprep_sweeps_total",
			Help: "Completed expiry sweeps",
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blueprep_sweep_duration_seconds",
			Help:    "Duration of expiry sweeps",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	ReportDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blueprep_report_deliveries_total",
			Help: "Leaderboard report deliveries to operators",
		},
		[]string{"status"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(SubmissionsTotal)
		prometheus.MustRegister(TestsEndedTotal)
		prometheus.MustRegister(SweepsTotal)
		prometheus.MustRegister(SweepDuration)
		prometheus.MustRegister(ReportDeliveriesTotal)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
