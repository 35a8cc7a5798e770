package jobhealth

import (
	"context"
	"sync"
	"time"

	"github.com/postloop/growthd/models"
)

type MemHeartbeatStore struct {
	mu   sync.Mutex
	Data map[string]models.JobHeartbeat
	// ordered statuses, per job
	History map[string][]models.JobStatus
}

var _ HeartbeatStore = (*MemHeartbeatStore)(nil)

func NewMemHeartbeatStore() *MemHeartbeatStore {
	return &MemHeartbeatStore{
		Data:    make(map[string]models.JobHeartbeat),
		History: make(map[string][]models.JobStatus),
	}
}

func (s *MemHeartbeatStore) Record(ctx context.Context, job string, status models.JobStatus, msg string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hb, ok := s.Data[job]
	if !ok {
		hb = models.JobHeartbeat{Job: job}
	}
	s.Data[job] = apply(hb, status, msg, at)
	s.History[job] = append(s.History[job], status)
	return nil
}

func (s *MemHeartbeatStore) Get(ctx context.Context, job string) (*models.JobHeartbeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hb, ok := s.Data[job]
	if !ok {
		return nil, ErrUnknownJob
	}
	return &hb, nil
}
