package growth

type TrendLabel string

const (
	TrendIncreasing TrendLabel = "increasing"
	TrendDecreasing TrendLabel = "decreasing"
	TrendFlat       TrendLabel = "flat"
)

// the recent average must move more than 5% from the lookback average to
// count as a trend
const trendBand = 0.05

type Trend struct {
	AvgReward24h   float64
	AvgReward72h   float64
	Label          TrendLabel
	RewardVariance float64
}

func meanReward(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Reward
	}
	return sum / float64(len(samples))
}

// population variance; zero for one sample or fewer
func rewardVariance(samples []Sample) float64 {
	if len(samples) <= 1 {
		return 0
	}
	mean := meanReward(samples)
	acc := 0.0
	for _, s := range samples {
		d := s.Reward - mean
		acc += d * d
	}
	return acc / float64(len(samples))
}

// ClassifyTrend compares the recent reward average against the full lookback
// average.
func ClassifyTrend(recent, lookback []Sample) Trend {
	t := Trend{
		AvgReward24h:   meanReward(recent),
		AvgReward72h:   meanReward(lookback),
		Label:          TrendFlat,
		RewardVariance: rewardVariance(recent),
	}
	// cold start: nothing to compare against
	if t.AvgReward72h == 0 {
		return t
	}
	if t.AvgReward24h > t.AvgReward72h*(1+trendBand) {
		t.Label = TrendIncreasing
	} else if t.AvgReward24h < t.AvgReward72h*(1-trendBand) {
		t.Label = TrendDecreasing
	}
	return t
}
