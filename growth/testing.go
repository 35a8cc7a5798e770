package growth

import (
	"log/slog"

	"github.com/postloop/growthd/growth/aggstore"
	"github.com/postloop/growthd/growth/eventlog"
	"github.com/postloop/growthd/growth/incidentstore"
	"github.com/postloop/growthd/growth/jobhealth"
	"github.com/postloop/growthd/growth/planstore"
	"github.com/postloop/growthd/growth/report"
	"github.com/postloop/growthd/growth/telemetry"
)

// EngineTestFixture returns an Engine with default config, backed entirely by
// in-memory stores.
func EngineTestFixture() Engine {
	return Engine{
		Logger:     slog.Default(),
		Config:     DefaultConfig(),
		Telemetry:  telemetry.NewMemStore(),
		Incidents:  incidentstore.NewMemIncidentStore(),
		Aggregates: aggstore.NewMemAggregateStore(),
		Feeds:      &StaticFeedWeights{Weights: DefaultFeedWeights()},
		Plans:      planstore.NewMemPlanStore(),
		Events:     eventlog.NewMemEventLog(),
		Heartbeats: jobhealth.NewMemHeartbeatStore(),
		Report:     &report.MemReport{},
	}
}
