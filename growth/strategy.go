package growth

import (
	"context"
	"log/slog"
	"time"

	"github.com/postloop/growthd/growth/aggstore"
	"github.com/postloop/growthd/models"
)

// NormalizeWeights converts ranked aggregate rows into weights proportional
// to average reward. Negative averages count as zero. When nothing positive
// remains, every row gets an equal share. No rows means no weights.
func NormalizeWeights(rows []models.DimensionRank) []models.WeightEntry {
	if len(rows) == 0 {
		return []models.WeightEntry{}
	}
	sum := 0.0
	for _, r := range rows {
		sum += max(r.AvgRewardScore, 0)
	}
	out := make([]models.WeightEntry, len(rows))
	for i, r := range rows {
		w := 1.0 / float64(len(rows))
		if sum > 0 {
			w = max(r.AvgRewardScore, 0) / sum
		}
		out[i] = models.WeightEntry{Value: r.DimensionValue, Weight: w}
	}
	return out
}

// Builds per-dimension strategy weights from the trailing daily aggregates.
type StrategyWeightNormalizer struct {
	Store         aggstore.AggregateStore
	Logger        *slog.Logger
	Window        time.Duration
	TopTopics     int
	TopFormats    int
	TopGenerators int
}

func (n *StrategyWeightNormalizer) dimension(ctx context.Context, dim models.DimensionType, limit int, now time.Time) []models.WeightEntry {
	rows, err := n.Store.TopByReward(ctx, dim, now.Add(-n.Window), now, limit)
	if err != nil {
		telemetryReadErrors.WithLabelValues("aggregates").Inc()
		n.Logger.Warn("dimension aggregates unavailable", "dimension", dim, "err", err)
		rows = nil
	}
	return NormalizeWeights(rows)
}

func (n *StrategyWeightNormalizer) Weights(ctx context.Context, now time.Time) models.StrategyWeights {
	return models.StrategyWeights{
		Topics:     n.dimension(ctx, models.DimensionTopic, n.TopTopics, now),
		Formats:    n.dimension(ctx, models.DimensionFormat, n.TopFormats, now),
		Generators: n.dimension(ctx, models.DimensionGenerator, n.TopGenerators, now),
	}
}
