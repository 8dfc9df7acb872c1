package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	tasksSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsdispatch",
		Name:      "tasks_sent_total",
		Help:      "Tasks delivered successfully.",
	})

	tasksFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsdispatch",
		Name:      "tasks_failed_total",
		Help:      "Tasks with a terminal delivery failure.",
	})

	ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsdispatch",
		Name:      "scheduler_ticks_total",
		Help:      "Scheduler ticks executed.",
	})

	tickErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "smsdispatch",
		Name:      "scheduler_tick_errors_total",
		Help:      "Ticks aborted by a store fault.",
	})

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smsdispatch",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(tasksSent, tasksFailed, ticks, tickErrors, httpRequests)
	})
}

func IncSent()   { tasksSent.Inc() }
func IncFailed() { tasksFailed.Inc() }

func IncTick()      { ticks.Inc() }
func IncTickError() { tickErrors.Inc() }

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
