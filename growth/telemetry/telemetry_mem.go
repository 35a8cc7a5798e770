package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/postloop/growthd/models"
)

// In-process telemetry store, mostly for tests and local development.
type MemStore struct {
	mu          sync.Mutex
	Rewards     []models.RewardSample
	Followers   []models.AccountSnapshot
	Performance []models.PerformanceSnapshot
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{}
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func (s *MemStore) AddReward(at time.Time, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rewards = append(s.Rewards, models.RewardSample{ObservedAt: at, RewardScore: score})
}

func (s *MemStore) AddFollowers(at time.Time, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Followers = append(s.Followers, models.AccountSnapshot{ObservedAt: at, FollowerCount: count})
}

func (s *MemStore) AddPerformance(at time.Time, horizon string, impressions, bookmarks int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Performance = append(s.Performance, models.PerformanceSnapshot{
		ObservedAt:  at,
		Horizon:     horizon,
		Impressions: impressions,
		Bookmarks:   bookmarks,
	})
}

func (s *MemStore) RewardSamples(ctx context.Context, start, end time.Time) ([]models.RewardSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RewardSample{}
	for _, r := range s.Rewards {
		if inRange(r.ObservedAt, start, end) && r.Validate() == nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}

func (s *MemStore) FollowerSnapshots(ctx context.Context, start, end time.Time) ([]models.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.AccountSnapshot{}
	for _, a := range s.Followers {
		if inRange(a.ObservedAt, start, end) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}

func (s *MemStore) PerformanceAverages(ctx context.Context, horizon string, start, end time.Time) (PerformanceAverages, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out PerformanceAverages
	var impressions, bookmarks int64
	for _, p := range s.Performance {
		if p.Horizon != horizon || !inRange(p.ObservedAt, start, end) {
			continue
		}
		impressions += p.Impressions
		bookmarks += p.Bookmarks
		out.Count++
	}
	if out.Count > 0 {
		out.Impressions = float64(impressions) / float64(out.Count)
		out.Bookmarks = float64(bookmarks) / float64(out.Count)
	}
	return out, nil
}
