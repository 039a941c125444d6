package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists assessments and the per-clinician patient-id counter.
// List methods return newest first plus the unpaged total; limit <= 0 means
// unbounded.
type Repository interface {
	Save(ctx context.Context, a *Assessment) error

	// Delete removes a saved assessment. It exists to roll back a save whose
	// submission ultimately fails; records are otherwise immutable.
	Delete(ctx context.Context, id uuid.UUID) error

	ByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	ByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Assessment, int, error)
	ByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Assessment, int, error)
	ByDateRange(ctx context.Context, start, end time.Time, doctorID *uuid.UUID) ([]*Assessment, error)

	// NextPatientSequence atomically increments and returns the clinician's
	// patient counter. The first call for a doctor returns 1.
	NextPatientSequence(ctx context.Context, doctorID uuid.UUID) (int, error)
}
