package telemetry

import (
	"context"
	"time"

	"github.com/postloop/growthd/models"
)

// Averaged impression and bookmark counters over a set of performance
// snapshots. Count is the number of snapshots averaged; zero means no data.
type PerformanceAverages struct {
	Impressions float64
	Bookmarks   float64
	Count       int64
}

// Read-only access to outcome telemetry. All time ranges are half-open,
// [start, end).
type Store interface {
	RewardSamples(ctx context.Context, start, end time.Time) ([]models.RewardSample, error)
	FollowerSnapshots(ctx context.Context, start, end time.Time) ([]models.AccountSnapshot, error)
	PerformanceAverages(ctx context.Context, horizon string, start, end time.Time) (PerformanceAverages, error)
}
