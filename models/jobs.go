package models

import (
	"time"
)

type AuditEvent struct {
	ID        uint           `gorm:"primaryKey"`
	CreatedAt time.Time      `gorm:"index;not null"`
	Kind      string         `gorm:"index;not null"`
	Payload   map[string]any `gorm:"serializer:json"`
}

type JobStatus string

const (
	JobStarted   JobStatus = "started"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Latest health markers for a scheduled job, one row per job name.
type JobHeartbeat struct {
	Job             string    `gorm:"primaryKey" json:"job"`
	Status          JobStatus `gorm:"not null" json:"status"`
	LastStartedAt   time.Time `json:"last_started_at"`
	LastSucceededAt time.Time `json:"last_succeeded_at"`
	LastFailedAt    time.Time `json:"last_failed_at"`
	LastError       string    `json:"last_error,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}
