package planstore

import (
	"context"
	"errors"
	"time"

	"github.com/postloop/growthd/models"
)

var ErrNotFound = errors.New("growth plan not found")

// Durable record of growth plans, at most one per window start.
type PlanStore interface {
	// Upsert inserts the plan, or replaces the existing plan with the same
	// WindowStart.
	Upsert(ctx context.Context, plan *models.GrowthPlan) error
	Get(ctx context.Context, windowStart time.Time) (*models.GrowthPlan, error)
	// LatestBefore returns the plan with the greatest WindowStart strictly
	// before t.
	LatestBefore(ctx context.Context, t time.Time) (*models.GrowthPlan, error)
	Latest(ctx context.Context) (*models.GrowthPlan, error)
}
