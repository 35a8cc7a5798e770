package planstore

import (
	"context"
	"sync"
	"time"

	"github.com/postloop/growthd/models"
)

type MemPlanStore struct {
	mu    sync.Mutex
	Plans map[int64]models.GrowthPlan
	// Writes counts successful upserts, including replacements
	Writes int
}

var _ PlanStore = (*MemPlanStore)(nil)

func NewMemPlanStore() *MemPlanStore {
	return &MemPlanStore{
		Plans: make(map[int64]models.GrowthPlan),
	}
}

func (s *MemPlanStore) Upsert(ctx context.Context, plan *models.GrowthPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := plan.WindowStart.Unix()
	row := *plan
	now := time.Now().UTC()
	if prev, ok := s.Plans[key]; ok {
		row.CreatedAt = prev.CreatedAt
	} else {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	s.Plans[key] = row
	s.Writes++
	return nil
}

func (s *MemPlanStore) Get(ctx context.Context, windowStart time.Time) (*models.GrowthPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Plans[windowStart.Unix()]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemPlanStore) latest(before *time.Time) (*models.GrowthPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.GrowthPlan
	for _, p := range s.Plans {
		if before != nil && !p.WindowStart.Before(*before) {
			continue
		}
		if best == nil || p.WindowStart.After(best.WindowStart) {
			cp := p
			best = &cp
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (s *MemPlanStore) LatestBefore(ctx context.Context, t time.Time) (*models.GrowthPlan, error) {
	return s.latest(&t)
}

func (s *MemPlanStore) Latest(ctx context.Context) (*models.GrowthPlan, error) {
	return s.latest(nil)
}
