package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ReplyFanoutRewrites counts profile-update fan-out rewrites of
	// denormalized reply copies, labeled by outcome.
	ReplyFanoutRewrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_reply_fanout_total",
		Help: "Total number of reply fan-out rewrites after profile updates",
	}, []string{"outcome"})

	// MediaOperations counts media store uploads and deletes by operation and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_media_operations_total",
		Help: "Total number of media store operations",
	}, []string{"operation", "outcome"})
)

// InitMetrics creates the Prometheus HTTP metrics collector for the service.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the Fiber handler recording per-request HTTP metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
