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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	// 业务指标
	AttemptsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_attempts_recorded_total",
			Help: "Mission attempts written, by resulting status",
		},
		[]string{"status"},
	)

	AttemptStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_attempt_status_changes_total",
			Help: "Attempt status overwrites, by new status",
		},
		[]string{"status"},
	)

	ReasoningLogsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_reasoning_logs_saved_total",
			Help: "Reasoning log saves, by target kind",
		},
		[]string{"kind"},
	)

	QuizzesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_quizzes_generated_total",
			Help: "Quiz questions generated, by detected operation",
		},
		[]string{"operation"},
	)

	MissionListCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_ordered_list_cache_total",
			Help: "Ordered mission list lookups, by cache result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Init 注册全部指标，重复调用无副作用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AttemptsRecorded,
			AttemptStatusChanges,
			ReasoningLogsSaved,
			QuizzesGenerated,
			MissionListCache,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
