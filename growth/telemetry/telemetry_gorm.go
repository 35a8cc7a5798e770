package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/postloop/growthd/models"

	"gorm.io/gorm"
)

type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) RewardSamples(ctx context.Context, start, end time.Time) ([]models.RewardSample, error) {
	var rows []models.RewardSample
	err := s.DB.WithContext(ctx).
		Where("observed_at >= ? AND observed_at < ?", start.UTC(), end.UTC()).
		Order("observed_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying reward samples: %w", err)
	}
	out := make([]models.RewardSample, 0, len(rows))
	for _, r := range rows {
		// rows which fail validation were written by a buggy collaborator; skip them
		if r.Validate() != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *GormStore) FollowerSnapshots(ctx context.Context, start, end time.Time) ([]models.AccountSnapshot, error) {
	var rows []models.AccountSnapshot
	err := s.DB.WithContext(ctx).
		Where("observed_at >= ? AND observed_at < ?", start.UTC(), end.UTC()).
		Order("observed_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying account snapshots: %w", err)
	}
	return rows, nil
}

func (s *GormStore) PerformanceAverages(ctx context.Context, horizon string, start, end time.Time) (PerformanceAverages, error) {
	var out PerformanceAverages
	err := s.DB.WithContext(ctx).
		Model(&models.PerformanceSnapshot{}).
		Select("COALESCE(AVG(impressions), 0) AS impressions, COALESCE(AVG(bookmarks), 0) AS bookmarks, COUNT(*) AS count").
		Where("horizon = ? AND observed_at >= ? AND observed_at < ?", horizon, start.UTC(), end.UTC()).
		Scan(&out).Error
	if err != nil {
		return PerformanceAverages{}, fmt.Errorf("querying performance snapshots: %w", err)
	}
	return out, nil
}
