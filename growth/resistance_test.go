package growth

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/postloop/growthd/growth/incidentstore"
	"github.com/postloop/growthd/models"

	"github.com/stretchr/testify/assert"
)

type brokenIncidentStore struct{}

func (brokenIncidentStore) Record(ctx context.Context, inc models.Incident) error {
	return fmt.Errorf("offline")
}

func (brokenIncidentStore) Count(ctx context.Context, typ models.IncidentType, start, end time.Time) (int, error) {
	return 0, fmt.Errorf("offline")
}

func TestEvaluateResistance(t *testing.T) {
	assert := assert.New(t)

	r := EvaluateResistance(IncidentCounts{}, 5, 10)
	assert.False(r.ShouldBackoff)
	assert.Equal("no backoff", r.Reason)

	r = EvaluateResistance(IncidentCounts{ConsentWalls: 4, PostFailures: 9}, 5, 10)
	assert.False(r.ShouldBackoff)

	r = EvaluateResistance(IncidentCounts{ConsentWalls: 6}, 5, 10)
	assert.True(r.ShouldBackoff)
	assert.Equal(models.IncidentConsentWall, r.Trigger)
	assert.Equal("CONSENT_WALL threshold exceeded: 6 in last hour (limit 5)", r.Reason)

	r = EvaluateResistance(IncidentCounts{PostFailures: 10}, 5, 10)
	assert.True(r.ShouldBackoff)
	assert.Equal(models.IncidentPostFailure, r.Trigger)

	r = EvaluateResistance(IncidentCounts{Challenges: 1}, 5, 10)
	assert.True(r.ShouldBackoff)
	assert.Equal("CHALLENGE detected: 1 in last hour", r.Reason)

	// consent walls take priority
	r = EvaluateResistance(IncidentCounts{ConsentWalls: 5, PostFailures: 20, Challenges: 3}, 5, 10)
	assert.Equal(models.IncidentConsentWall, r.Trigger)
	r = EvaluateResistance(IncidentCounts{PostFailures: 20, Challenges: 3}, 5, 10)
	assert.Equal(models.IncidentPostFailure, r.Trigger)
}

func TestResistanceDetector(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := incidentstore.NewMemIncidentStore()
	det := ResistanceDetector{
		Store:                store,
		Logger:               slog.Default(),
		Window:               time.Hour,
		ConsentWallThreshold: 5,
		PostFailureThreshold: 10,
	}
	assert.NoError(store.Record(ctx, models.Incident{Type: models.IncidentChallenge, CreatedAt: testNow.Add(-2 * time.Hour)}))
	assert.False(det.Detect(ctx, testNow).ShouldBackoff)

	// an incident at exactly "now" counts
	assert.NoError(store.Record(ctx, models.Incident{Type: models.IncidentChallenge, CreatedAt: testNow}))
	r := det.Detect(ctx, testNow)
	assert.True(r.ShouldBackoff)
	assert.Equal(1, r.Counts.Challenges)

	det.Store = brokenIncidentStore{}
	assert.False(det.Detect(ctx, testNow).ShouldBackoff)
}
