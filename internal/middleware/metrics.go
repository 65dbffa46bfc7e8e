package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "questhub_redis_errors_total",
	Help: "Total Redis command errors by command",
}, []string{"command"})

var prom *fiberprometheus.FiberPrometheus

// InitMetrics sets up HTTP metrics collection and the /metrics endpoint.
func InitMetrics(app *fiber.App, serviceName string) {
	prom = fiberprometheus.New(serviceName)
	prom.RegisterAt(app, "/metrics")
}

// MetricsMiddleware returns the request instrumentation handler. InitMetrics
// must run first.
func MetricsMiddleware() fiber.Handler {
	if prom == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return prom.Middleware
}
