package growth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/postloop/growthd/growth/incidentstore"
	"github.com/postloop/growthd/models"
)

const noBackoffReason = "no backoff"

type IncidentCounts struct {
	ConsentWalls int
	PostFailures int
	Challenges   int
}

type Resistance struct {
	ShouldBackoff bool
	Reason        string
	// incident type which triggered backoff, empty otherwise
	Trigger models.IncidentType
	Counts  IncidentCounts
}

// EvaluateResistance applies the backoff thresholds in priority order:
// consent walls, then post failures, then challenges. The first category
// that trips decides the reason.
func EvaluateResistance(c IncidentCounts, consentThreshold, failureThreshold int) Resistance {
	r := Resistance{Reason: noBackoffReason, Counts: c}
	switch {
	case c.ConsentWalls >= consentThreshold:
		r.ShouldBackoff = true
		r.Trigger = models.IncidentConsentWall
		r.Reason = fmt.Sprintf("%s threshold exceeded: %d in last hour (limit %d)", models.IncidentConsentWall, c.ConsentWalls, consentThreshold)
	case c.PostFailures >= failureThreshold:
		r.ShouldBackoff = true
		r.Trigger = models.IncidentPostFailure
		r.Reason = fmt.Sprintf("%s threshold exceeded: %d in last hour (limit %d)", models.IncidentPostFailure, c.PostFailures, failureThreshold)
	case c.Challenges >= 1:
		// a single challenge is unambiguous; there is no tunable threshold
		r.ShouldBackoff = true
		r.Trigger = models.IncidentChallenge
		r.Reason = fmt.Sprintf("%s detected: %d in last hour", models.IncidentChallenge, c.Challenges)
	}
	return r
}

// Scans the trailing incident log for platform pushback.
type ResistanceDetector struct {
	Store                incidentstore.IncidentStore
	Logger               *slog.Logger
	Window               time.Duration
	ConsentWallThreshold int
	PostFailureThreshold int
}

func (d *ResistanceDetector) count(ctx context.Context, typ models.IncidentType, now time.Time) int {
	// the window is inclusive of "now"
	n, err := d.Store.Count(ctx, typ, now.Add(-d.Window), now.Add(time.Nanosecond))
	if err != nil {
		telemetryReadErrors.WithLabelValues("incidents").Inc()
		d.Logger.Warn("incident log unavailable", "type", typ, "err", err)
		return 0
	}
	return n
}

func (d *ResistanceDetector) Detect(ctx context.Context, now time.Time) Resistance {
	counts := IncidentCounts{
		ConsentWalls: d.count(ctx, models.IncidentConsentWall, now),
		PostFailures: d.count(ctx, models.IncidentPostFailure, now),
		Challenges:   d.count(ctx, models.IncidentChallenge, now),
	}
	return EvaluateResistance(counts, d.ConsentWallThreshold, d.PostFailureThreshold)
}
