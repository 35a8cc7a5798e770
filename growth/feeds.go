package growth

import (
	"context"

	"github.com/postloop/growthd/models"
)

// Supplies the weighting across content-discovery feeds. Kept behind an
// interface so a learned distribution can replace the static one.
type FeedWeightProvider interface {
	FeedWeights(ctx context.Context) models.FeedWeights
}

type StaticFeedWeights struct {
	Weights models.FeedWeights
}

var _ FeedWeightProvider = (*StaticFeedWeights)(nil)

func (s *StaticFeedWeights) FeedWeights(ctx context.Context) models.FeedWeights {
	return normalizeFeedWeights(s.Weights)
}

// scales weights to sum to 1.0; negative entries count as zero, and an
// all-zero set falls back to the defaults
func normalizeFeedWeights(fw models.FeedWeights) models.FeedWeights {
	fw.CuratedAccounts = max(fw.CuratedAccounts, 0)
	fw.KeywordSearch = max(fw.KeywordSearch, 0)
	fw.ViralWatcher = max(fw.ViralWatcher, 0)
	fw.NewAccounts = max(fw.NewAccounts, 0)
	sum := fw.Sum()
	if sum <= 0 {
		return DefaultFeedWeights()
	}
	return models.FeedWeights{
		CuratedAccounts: fw.CuratedAccounts / sum,
		KeywordSearch:   fw.KeywordSearch / sum,
		ViralWatcher:    fw.ViralWatcher / sum,
		NewAccounts:     fw.NewAccounts / sum,
	}
}
