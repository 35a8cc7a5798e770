package growth

import (
	"fmt"
	"time"

	"github.com/postloop/growthd/models"
)

// Bounds and starting point for one cadence (posts or replies per hour).
type CadenceBounds struct {
	// safe envelope; recommendations never leave [Min, Max]
	Min int
	Max int
	// largest change applied in one hourly window
	Step int
	// cadence assumed when no earlier plan exists
	Baseline int
}

// Config holds every tunable of the growth controller. It is passed to the
// Engine at construction; the engine does not read process environment.
type Config struct {
	// name used for job heartbeats
	JobName string

	Posts   CadenceBounds
	Replies CadenceBounds

	// incident counts at or above these values in the incident window
	// trigger backoff. A single platform challenge always triggers.
	ConsentWallThreshold int
	PostFailureThreshold int

	FeedWeights models.FeedWeights

	RewardLookback     time.Duration
	RecentWindow       time.Duration
	IncidentWindow     time.Duration
	AggregateWindow    time.Duration
	PerformanceHorizon string

	TopTopics     int
	TopFormats    int
	TopGenerators int
}

func DefaultFeedWeights() models.FeedWeights {
	return models.FeedWeights{
		CuratedAccounts: 0.35,
		KeywordSearch:   0.30,
		ViralWatcher:    0.20,
		NewAccounts:     0.15,
	}
}

func DefaultConfig() Config {
	return Config{
		JobName: "growth_plan",
		Posts: CadenceBounds{
			Min:      1,
			Max:      4,
			Step:     1,
			Baseline: 2,
		},
		Replies: CadenceBounds{
			Min:      2,
			Max:      8,
			Step:     2,
			Baseline: 4,
		},
		ConsentWallThreshold: 5,
		PostFailureThreshold: 10,
		FeedWeights:          DefaultFeedWeights(),
		RewardLookback:       72 * time.Hour,
		RecentWindow:         24 * time.Hour,
		IncidentWindow:       time.Hour,
		AggregateWindow:      7 * 24 * time.Hour,
		PerformanceHorizon:   "24h",
		TopTopics:            5,
		TopFormats:           3,
		TopGenerators:        5,
	}
}

func (b CadenceBounds) validate(name string) error {
	if b.Min < 0 || b.Max < b.Min {
		return fmt.Errorf("invalid %s envelope [%d,%d]", name, b.Min, b.Max)
	}
	if b.Step <= 0 {
		return fmt.Errorf("invalid %s step: %d", name, b.Step)
	}
	return nil
}

// Validate checks bounds, and normalizes the configured feed weights so they
// sum to 1.0. Unusable feed weights fall back to the defaults.
func (c *Config) Validate() error {
	if c.JobName == "" {
		return fmt.Errorf("job name is required")
	}
	if err := c.Posts.validate("posts"); err != nil {
		return err
	}
	if err := c.Replies.validate("replies"); err != nil {
		return err
	}
	if c.ConsentWallThreshold <= 0 || c.PostFailureThreshold <= 0 {
		return fmt.Errorf("resistance thresholds must be positive (consent=%d failures=%d)", c.ConsentWallThreshold, c.PostFailureThreshold)
	}
	if c.RewardLookback < c.RecentWindow || c.RecentWindow <= 0 {
		return fmt.Errorf("reward lookback (%s) must cover the recent window (%s)", c.RewardLookback, c.RecentWindow)
	}
	if c.IncidentWindow <= 0 || c.AggregateWindow <= 0 {
		return fmt.Errorf("incident and aggregate windows must be positive")
	}
	if c.TopTopics < 0 || c.TopFormats < 0 || c.TopGenerators < 0 {
		return fmt.Errorf("top-N limits must not be negative")
	}
	c.FeedWeights = normalizeFeedWeights(c.FeedWeights)
	return nil
}
