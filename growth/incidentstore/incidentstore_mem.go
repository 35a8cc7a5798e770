package incidentstore

import (
	"context"
	"sync"
	"time"

	"github.com/postloop/growthd/models"
)

type MemIncidentStore struct {
	mu        sync.Mutex
	Incidents []models.Incident
}

var _ IncidentStore = (*MemIncidentStore)(nil)

func NewMemIncidentStore() *MemIncidentStore {
	return &MemIncidentStore{}
}

func (s *MemIncidentStore) Record(ctx context.Context, inc models.Incident) error {
	if err := inc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Incidents = append(s.Incidents, inc)
	return nil
}

func (s *MemIncidentStore) Count(ctx context.Context, typ models.IncidentType, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, inc := range s.Incidents {
		if inc.Type == typ && !inc.CreatedAt.Before(start) && inc.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}
