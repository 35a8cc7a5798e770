package models

import (
	"time"
)

// Weighting across the four content-discovery feeds.
type FeedWeights struct {
	CuratedAccounts float64 `json:"curated_accounts"`
	KeywordSearch   float64 `json:"keyword_search"`
	ViralWatcher    float64 `json:"viral_watcher"`
	NewAccounts     float64 `json:"new_accounts"`
}

func (fw FeedWeights) Sum() float64 {
	return fw.CuratedAccounts + fw.KeywordSearch + fw.ViralWatcher + fw.NewAccounts
}

type WeightEntry struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// Ranked weight lists per strategy dimension. A nil or empty list means no
// evidence was available for that dimension.
type StrategyWeights struct {
	Topics     []WeightEntry `json:"topics"`
	Formats    []WeightEntry `json:"formats"`
	Generators []WeightEntry `json:"generators"`
}

// Operational targets for one hourly window, [WindowStart, WindowEnd).
// There is at most one plan per WindowStart; re-running the controller for a
// window replaces the earlier row.
type GrowthPlan struct {
	ID              uint            `gorm:"primarykey" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	WindowStart     time.Time       `gorm:"uniqueIndex;not null" json:"window_start"`
	WindowEnd       time.Time       `gorm:"not null" json:"window_end"`
	TargetPosts     int             `json:"target_posts"`
	TargetReplies   int             `json:"target_replies"`
	FeedWeights     FeedWeights     `gorm:"serializer:json" json:"feed_weights"`
	StrategyWeights StrategyWeights `gorm:"serializer:json" json:"strategy_weights"`
	ExplorationRate float64         `json:"exploration_rate"`
	ReasonSummary   string          `json:"reason_summary"`
	BackoffApplied  bool            `json:"backoff_applied"`
	BackoffReason   string          `json:"backoff_reason,omitempty"`
}

// Contains reports whether t falls inside the plan's half-open window.
func (p *GrowthPlan) Contains(t time.Time) bool {
	return !t.Before(p.WindowStart) && t.Before(p.WindowEnd)
}
