package planstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postloop/growthd/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormPlanStore struct {
	DB *gorm.DB
}

var _ PlanStore = (*GormPlanStore)(nil)

func NewGormPlanStore(db *gorm.DB) *GormPlanStore {
	return &GormPlanStore{DB: db}
}

var upsertColumns = []string{
	"updated_at",
	"window_end",
	"target_posts",
	"target_replies",
	"feed_weights",
	"strategy_weights",
	"exploration_rate",
	"reason_summary",
	"backoff_applied",
	"backoff_reason",
}

func (s *GormPlanStore) Upsert(ctx context.Context, plan *models.GrowthPlan) error {
	row := *plan
	row.ID = 0
	row.WindowStart = row.WindowStart.UTC()
	row.WindowEnd = row.WindowEnd.UTC()
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "window_start"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("upserting growth plan for %s: %w", row.WindowStart.Format(time.RFC3339), res.Error)
	}
	return nil
}

func (s *GormPlanStore) first(tx *gorm.DB) (*models.GrowthPlan, error) {
	var plan models.GrowthPlan
	err := tx.First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("reading growth plan: %w", err)
	}
	return &plan, nil
}

func (s *GormPlanStore) Get(ctx context.Context, windowStart time.Time) (*models.GrowthPlan, error) {
	return s.first(s.DB.WithContext(ctx).Where("window_start = ?", windowStart.UTC()))
}

func (s *GormPlanStore) LatestBefore(ctx context.Context, t time.Time) (*models.GrowthPlan, error) {
	return s.first(s.DB.WithContext(ctx).Where("window_start < ?", t.UTC()).Order("window_start desc"))
}

func (s *GormPlanStore) Latest(ctx context.Context) (*models.GrowthPlan, error) {
	return s.first(s.DB.WithContext(ctx).Order("window_start desc"))
}
