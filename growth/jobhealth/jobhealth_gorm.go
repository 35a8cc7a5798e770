package jobhealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postloop/growthd/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormHeartbeatStore struct {
	DB *gorm.DB
}

var _ HeartbeatStore = (*GormHeartbeatStore)(nil)

func NewGormHeartbeatStore(db *gorm.DB) *GormHeartbeatStore {
	return &GormHeartbeatStore{DB: db}
}

func (s *GormHeartbeatStore) Record(ctx context.Context, job string, status models.JobStatus, msg string, at time.Time) error {
	at = at.UTC()
	hb := apply(models.JobHeartbeat{Job: job}, status, msg, at)

	// only touch the columns this status owns, so earlier markers survive
	cols := []string{"status", "updated_at"}
	switch status {
	case models.JobStarted:
		cols = append(cols, "last_started_at")
	case models.JobSucceeded:
		cols = append(cols, "last_succeeded_at", "last_error")
	case models.JobFailed:
		cols = append(cols, "last_failed_at", "last_error")
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&hb)
	if res.Error != nil {
		return fmt.Errorf("recording %s heartbeat for %s: %w", status, job, res.Error)
	}
	return nil
}

func (s *GormHeartbeatStore) Get(ctx context.Context, job string) (*models.JobHeartbeat, error) {
	var hb models.JobHeartbeat
	err := s.DB.WithContext(ctx).Where("job = ?", job).First(&hb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownJob
	} else if err != nil {
		return nil, err
	}
	return &hb, nil
}
