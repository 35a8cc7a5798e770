package growth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("growth")

var planRunCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "growth_plan_runs",
	Help: "Number of growth plan runs, by final status",
}, []string{"status"})

var planRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "growth_plan_duration_sec",
	Help: "Total duration of growth plan runs",
})

var stageFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "growth_plan_stage_failures",
	Help: "Number of growth plan runs which failed, by stage",
}, []string{"stage"})

var sideEffectErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "growth_side_effect_errors",
	Help: "Number of best-effort writes (events, report, heartbeats, notifications) which failed",
}, []string{"kind"})

var telemetryReadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "growth_telemetry_read_errors",
	Help: "Number of controller input reads which failed and were treated as empty",
}, []string{"source"})

var backoffCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "growth_backoffs",
	Help: "Number of plans with a resistance backoff, by triggering incident type",
}, []string{"trigger"})

var targetPostsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "growth_target_posts",
	Help: "Target posts per hour in the latest committed plan",
})

var targetRepliesGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "growth_target_replies",
	Help: "Target replies per hour in the latest committed plan",
})

var explorationRateGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "growth_exploration_rate",
	Help: "Exploration rate in the latest committed plan",
})
