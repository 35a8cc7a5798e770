package aggstore

import (
	"context"
	"time"

	"github.com/postloop/growthd/models"
)

// Daily per-dimension reward rollups.
type AggregateStore interface {
	// TopByReward groups the daily rows of one dimension with Day in
	// [start, end) by dimension value, and returns at most limit values ranked
	// by average reward score, highest first.
	TopByReward(ctx context.Context, dim models.DimensionType, start, end time.Time, limit int) ([]models.DimensionRank, error)
	// Upsert writes the rollup for (day, dimension, value), replacing any
	// earlier row for the same key.
	Upsert(ctx context.Context, agg models.DimensionAggregate) error
}
