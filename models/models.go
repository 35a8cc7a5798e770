package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidRecord = errors.New("invalid record")

// Scalar outcome measurement for a posting window. Written by the
// attribution pipeline; the controller only reads these.
type RewardSample struct {
	ID          uint      `gorm:"primarykey"`
	ObservedAt  time.Time `gorm:"index;not null"`
	RewardScore float64   `gorm:"not null"`
	PostID      string
}

func (r *RewardSample) Validate() error {
	if math.IsNaN(r.RewardScore) || math.IsInf(r.RewardScore, 0) {
		return fmt.Errorf("%w: non-finite reward score", ErrInvalidRecord)
	}
	if r.ObservedAt.IsZero() {
		return fmt.Errorf("%w: reward sample missing timestamp", ErrInvalidRecord)
	}
	return nil
}

type AccountSnapshot struct {
	ID            uint      `gorm:"primarykey"`
	ObservedAt    time.Time `gorm:"index;not null"`
	FollowerCount int64     `gorm:"not null"`
}

// Impression and bookmark counters for one post, observed at a fixed horizon
// after publishing (eg, "24h").
type PerformanceSnapshot struct {
	ID          uint      `gorm:"primarykey"`
	ObservedAt  time.Time `gorm:"index;not null"`
	Horizon     string    `gorm:"index;not null"`
	PostID      string
	Impressions int64
	Bookmarks   int64
}

type IncidentType string

const (
	IncidentConsentWall IncidentType = "CONSENT_WALL"
	IncidentPostFailure IncidentType = "POST_FAILURE"
	IncidentChallenge   IncidentType = "CHALLENGE"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentConsentWall, IncidentPostFailure, IncidentChallenge:
		return true
	}
	return false
}

func ParseIncidentType(raw string) (IncidentType, error) {
	t := IncidentType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown incident type %q", ErrInvalidRecord, raw)
	}
	return t, nil
}

type Incident struct {
	ID        uint         `gorm:"primarykey"`
	CreatedAt time.Time    `gorm:"index:idx_incident_type_time,priority:2;not null"`
	Type      IncidentType `gorm:"index:idx_incident_type_time,priority:1;not null"`
	Detail    string
}

func (i *Incident) Validate() error {
	if !i.Type.Valid() {
		return fmt.Errorf("%w: unknown incident type %q", ErrInvalidRecord, i.Type)
	}
	if i.CreatedAt.IsZero() {
		return fmt.Errorf("%w: incident missing timestamp", ErrInvalidRecord)
	}
	return nil
}

type DimensionType string

const (
	DimensionTopic     DimensionType = "topic"
	DimensionFormat    DimensionType = "format"
	DimensionGenerator DimensionType = "generator"
)

func (d DimensionType) Valid() bool {
	switch d {
	case DimensionTopic, DimensionFormat, DimensionGenerator:
		return true
	}
	return false
}

// Daily rollup of average reward for one value of one dimension.
type DimensionAggregate struct {
	ID             uint          `gorm:"primarykey"`
	Day            time.Time     `gorm:"uniqueIndex:idx_dimagg_day_value;not null"`
	DimensionType  DimensionType `gorm:"uniqueIndex:idx_dimagg_day_value;not null"`
	DimensionValue string        `gorm:"uniqueIndex:idx_dimagg_day_value;not null"`
	AvgRewardScore float64
	Decisions      int64
}

func (a *DimensionAggregate) Validate() error {
	if !a.DimensionType.Valid() {
		return fmt.Errorf("%w: unknown dimension type %q", ErrInvalidRecord, a.DimensionType)
	}
	if a.DimensionValue == "" {
		return fmt.Errorf("%w: empty dimension value", ErrInvalidRecord)
	}
	if math.IsNaN(a.AvgRewardScore) || math.IsInf(a.AvgRewardScore, 0) {
		return fmt.Errorf("%w: non-finite average reward", ErrInvalidRecord)
	}
	return nil
}

// One row of a ranked aggregate query: a dimension value with its average
// reward across the queried days.
type DimensionRank struct {
	DimensionValue string
	AvgRewardScore float64
	TotalDecisions int64
}

func RunAllMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&RewardSample{},
		&AccountSnapshot{},
		&PerformanceSnapshot{},
		&Incident{},
		&DimensionAggregate{},
		&GrowthPlan{},
		&AuditEvent{},
		&JobHeartbeat{},
	)
}
