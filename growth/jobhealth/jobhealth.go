package jobhealth

import (
	"context"
	"errors"
	"time"

	"github.com/postloop/growthd/models"
)

var ErrUnknownJob = errors.New("no heartbeat recorded for job")

// Start/success/failure markers for scheduled jobs, keyed by job name.
type HeartbeatStore interface {
	Record(ctx context.Context, job string, status models.JobStatus, msg string, at time.Time) error
	Get(ctx context.Context, job string) (*models.JobHeartbeat, error)
}

// applies a heartbeat to the previous state for the same job
func apply(hb models.JobHeartbeat, status models.JobStatus, msg string, at time.Time) models.JobHeartbeat {
	hb.Status = status
	hb.UpdatedAt = at
	switch status {
	case models.JobStarted:
		hb.LastStartedAt = at
	case models.JobSucceeded:
		hb.LastSucceededAt = at
		hb.LastError = ""
	case models.JobFailed:
		hb.LastFailedAt = at
		hb.LastError = msg
	}
	return hb
}
