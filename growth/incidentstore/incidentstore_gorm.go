package incidentstore

import (
	"context"
	"fmt"
	"time"

	"github.com/postloop/growthd/models"

	"gorm.io/gorm"
)

type GormIncidentStore struct {
	DB *gorm.DB
}

var _ IncidentStore = (*GormIncidentStore)(nil)

func NewGormIncidentStore(db *gorm.DB) *GormIncidentStore {
	return &GormIncidentStore{DB: db}
}

func (s *GormIncidentStore) Record(ctx context.Context, inc models.Incident) error {
	if err := inc.Validate(); err != nil {
		return err
	}
	inc.CreatedAt = inc.CreatedAt.UTC()
	if err := s.DB.WithContext(ctx).Create(&inc).Error; err != nil {
		return fmt.Errorf("recording incident: %w", err)
	}
	return nil
}

func (s *GormIncidentStore) Count(ctx context.Context, typ models.IncidentType, start, end time.Time) (int, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.Incident{}).
		Where("type = ? AND created_at >= ? AND created_at < ?", typ, start.UTC(), end.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting %s incidents: %w", typ, err)
	}
	return int(n), nil
}
