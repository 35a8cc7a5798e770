package aggstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/postloop/growthd/models"
)

type MemAggregateStore struct {
	mu   sync.Mutex
	Rows map[string]models.DimensionAggregate
}

var _ AggregateStore = (*MemAggregateStore)(nil)

func NewMemAggregateStore() *MemAggregateStore {
	return &MemAggregateStore{
		Rows: make(map[string]models.DimensionAggregate),
	}
}

func memKey(agg models.DimensionAggregate) string {
	return agg.Day.UTC().Format(time.DateOnly) + "/" + string(agg.DimensionType) + "/" + agg.DimensionValue
}

func (s *MemAggregateStore) Upsert(ctx context.Context, agg models.DimensionAggregate) error {
	if err := agg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rows[memKey(agg)] = agg
	return nil
}

func (s *MemAggregateStore) TopByReward(ctx context.Context, dim models.DimensionType, start, end time.Time, limit int) ([]models.DimensionRank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type acc struct {
		sum       float64
		days      int
		decisions int64
	}
	grouped := make(map[string]*acc)
	for _, row := range s.Rows {
		if row.DimensionType != dim || row.Day.Before(start) || !row.Day.Before(end) {
			continue
		}
		a, ok := grouped[row.DimensionValue]
		if !ok {
			a = &acc{}
			grouped[row.DimensionValue] = a
		}
		a.sum += row.AvgRewardScore
		a.days++
		a.decisions += row.Decisions
	}

	out := make([]models.DimensionRank, 0, len(grouped))
	for val, a := range grouped {
		out = append(out, models.DimensionRank{
			DimensionValue: val,
			AvgRewardScore: a.sum / float64(a.days),
			TotalDecisions: a.decisions,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRewardScore != out[j].AvgRewardScore {
			return out[i].AvgRewardScore > out[j].AvgRewardScore
		}
		return out[i].DimensionValue < out[j].DimensionValue
	})
	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
