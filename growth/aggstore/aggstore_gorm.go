package aggstore

import (
	"context"
	"fmt"
	"time"

	"github.com/postloop/growthd/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormAggregateStore struct {
	DB *gorm.DB
}

var _ AggregateStore = (*GormAggregateStore)(nil)

func NewGormAggregateStore(db *gorm.DB) *GormAggregateStore {
	return &GormAggregateStore{DB: db}
}

func (s *GormAggregateStore) TopByReward(ctx context.Context, dim models.DimensionType, start, end time.Time, limit int) ([]models.DimensionRank, error) {
	if limit <= 0 {
		return []models.DimensionRank{}, nil
	}
	var rows []models.DimensionRank
	err := s.DB.WithContext(ctx).
		Model(&models.DimensionAggregate{}).
		Select("dimension_value, AVG(avg_reward_score) AS avg_reward_score, SUM(decisions) AS total_decisions").
		Where("dimension_type = ? AND day >= ? AND day < ?", dim, start.UTC(), end.UTC()).
		Group("dimension_value").
		Order("avg_reward_score desc, dimension_value asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying %s aggregates: %w", dim, err)
	}
	return rows, nil
}

func (s *GormAggregateStore) Upsert(ctx context.Context, agg models.DimensionAggregate) error {
	if err := agg.Validate(); err != nil {
		return err
	}
	agg.Day = agg.Day.UTC()
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "dimension_type"}, {Name: "dimension_value"}},
		DoUpdates: clause.AssignmentColumns([]string{"avg_reward_score", "decisions"}),
	}).Create(&agg)
	if res.Error != nil {
		return fmt.Errorf("saving dimension aggregate: %w", res.Error)
	}
	return nil
}
