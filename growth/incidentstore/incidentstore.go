package incidentstore

import (
	"context"
	"time"

	"github.com/postloop/growthd/models"
)

// Log of platform pushback incidents (consent walls, failed posts,
// challenges). Written by the posting subsystems, read by the growth
// controller.
type IncidentStore interface {
	Record(ctx context.Context, inc models.Incident) error
	// Count returns the number of incidents of the given type with a
	// timestamp in [start, end).
	Count(ctx context.Context, typ models.IncidentType, start, end time.Time) (int, error)
}
