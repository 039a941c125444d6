package link

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentLink is a time-bounded, single-use token that grants an
// unauthenticated patient access to the assessment form on behalf of a
// clinician. A link is valid for consumption iff Used is false and the
// current time is before ExpiresAt; once consumed or expired it is
// permanently invalid.
type AssessmentLink struct {
	LinkID       string    `db:"link_id" json:"link_id"`
	DoctorID     uuid.UUID `db:"doctor_id" json:"doctor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	Used         bool      `db:"used" json:"used"`
	PatientEmail *string   `db:"patient_email" json:"patient_email,omitempty"`
	PatientName  *string   `db:"patient_name" json:"patient_name,omitempty"`
}
