package growth

import (
	"fmt"
	"math"
)

type CadenceKind string

const (
	CadencePosts   CadenceKind = "posts"
	CadenceReplies CadenceKind = "replies"
)

const (
	JustifyImproving = "reward improving, engagement positive"
	JustifyFalling   = "reward falling or resistance detected"
	JustifyHold      = "no significant change warranted"
)

// engagement thresholds for the corroborating signal
const (
	postsBookmarkSignal      = 2.0
	repliesImpressionSignal  = 100.0
	followerLossDecreaseGate = -5
)

// Signals are the auxiliary engagement measurements used next to the reward
// trend.
type Signals struct {
	FollowerDelta24h  int64
	AvgImpressions24h float64
	AvgBookmarks24h   float64
}

type CadenceRecommendation struct {
	Kind          CadenceKind
	Before        int
	After         int
	Justification string
}

func (r CadenceRecommendation) Verb() string {
	switch {
	case r.After > r.Before:
		return "Increasing"
	case r.After < r.Before:
		return "Decreasing"
	default:
		return "Holding"
	}
}

// Explain renders the recommendation as "Increasing posts: 2 → 3 (...)".
func (r CadenceRecommendation) Explain() string {
	return fmt.Sprintf("%s %s: %d → %d (%s)", r.Verb(), r.Kind, r.Before, r.After, r.Justification)
}

// Turns trend and engagement signals into a bounded cadence for one kind of
// action.
//
// Increasing needs both an improving reward and a positive engagement
// signal; a single negative signal is enough to decrease.
type CadenceRecommender struct {
	Kind CadenceKind
	Min  int
	Max  int
	Step int
}

func NewCadenceRecommender(kind CadenceKind, b CadenceBounds) CadenceRecommender {
	return CadenceRecommender{
		Kind: kind,
		Min:  b.Min,
		Max:  b.Max,
		Step: b.Step,
	}
}

func (c CadenceRecommender) clamp(v int) int {
	if v < c.Min {
		return c.Min
	}
	if v > c.Max {
		return c.Max
	}
	return v
}

func (c CadenceRecommender) positiveSignal(sig Signals) bool {
	if sig.FollowerDelta24h > 0 {
		return true
	}
	switch c.Kind {
	case CadencePosts:
		return sig.AvgBookmarks24h > postsBookmarkSignal
	case CadenceReplies:
		return sig.AvgImpressions24h > repliesImpressionSignal
	}
	return false
}

func (c CadenceRecommender) Recommend(current int, trend Trend, sig Signals) CadenceRecommendation {
	rec := CadenceRecommendation{
		Kind:          c.Kind,
		Before:        current,
		After:         current,
		Justification: JustifyHold,
	}
	improving := trend.Label == TrendIncreasing && trend.AvgReward24h > 0
	if improving && c.positiveSignal(sig) {
		rec.After = min(current+c.Step, c.Max)
		rec.Justification = JustifyImproving
	} else if trend.Label == TrendDecreasing || sig.FollowerDelta24h < followerLossDecreaseGate {
		rec.After = max(current-c.Step, c.Min)
		rec.Justification = JustifyFalling
	}
	rec.After = c.clamp(rec.After)
	return rec
}

// BackoffTarget halves a recommended cadence, rounding down, and never goes
// below one action per hour.
func BackoffTarget(recommended int) int {
	v := int(math.Floor(float64(recommended) * 0.5))
	if v < 1 {
		return 1
	}
	return v
}

// ApplyBackoff overrides a trend-based recommendation after resistance was
// detected.
func ApplyBackoff(rec CadenceRecommendation) CadenceRecommendation {
	rec.After = BackoffTarget(rec.After)
	rec.Justification = JustifyFalling
	return rec
}
