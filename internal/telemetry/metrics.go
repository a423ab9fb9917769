package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики процесса cascade-server.
//
// Регистрируются в default registry; отдаются на /metrics
// через promhttp.Handler().
var (
	// RunsStarted — количество запущенных runs по типу триггера.
	RunsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_runs_started_total",
		Help: "Total runs started, by trigger type",
	}, []string{"trigger"})

	// RunsFinished — количество завершённых runs по финальному статусу.
	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_runs_finished_total",
		Help: "Total runs finished, by terminal status",
	}, []string{"status"})

	// RunDuration — длительность run от старта до финального статуса.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cascade_run_duration_seconds",
		Help:    "Run execution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	// NodeRuns — количество выполненных узлов по типу блока и статусу.
	NodeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_node_runs_total",
		Help: "Total node executions, by block type and status",
	}, []string{"block_type", "status"})

	// NodeDuration — длительность выполнения узла по типу блока.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cascade_node_duration_seconds",
		Help:    "Node execution duration in seconds, by block type",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
	}, []string{"block_type"})

	// HTTPRequests — количество обработанных HTTP-запросов API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_http_requests_total",
		Help: "Total HTTP requests handled, by method and status code",
	}, []string{"method", "code"})
)

// ObserveNode записывает метрики одного выполненного узла.
func ObserveNode(blockType, status string, elapsed time.Duration) {
	NodeRuns.WithLabelValues(blockType, status).Inc()
	NodeDuration.WithLabelValues(blockType).Observe(elapsed.Seconds())
}

// ObserveRun записывает метрики одного завершённого run.
func ObserveRun(status string, elapsed time.Duration) {
	RunsFinished.WithLabelValues(status).Inc()
	RunDuration.Observe(elapsed.Seconds())
}
