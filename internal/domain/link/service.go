package link

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
)

// DefaultExpiryDays is used when a create request does not specify an expiry.
const DefaultExpiryDays = 7

// Service implements the assessment-link lifecycle: ACTIVE -> USED (stored,
// terminal) or ACTIVE -> expired (implicit via the clock, terminal).
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the service clock. Tests use it to advance time past
// a link's expiry.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create persists a fresh single-use link for doctorID. expiryDays < 0 is
// rejected; 0 produces a link that is already expired (callers use it to mint
// immediately-invalid links in tests); the zero-value request gets
// DefaultExpiryDays via the handler.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, expiryDays int, patientEmail, patientName *string) (*AssessmentLink, error) {
	if doctorID == uuid.Nil {
		return nil, apperr.Validation("doctor_id")
	}
	if expiryDays < 0 {
		return nil, apperr.Validation("expiry_days: must not be negative")
	}
	if patientEmail != nil && *patientEmail != "" && !strings.Contains(*patientEmail, "@") {
		return nil, apperr.Validation("patient_email")
	}

	createdAt := s.now().UTC()
	l := &AssessmentLink{
		LinkID:       uuid.NewString(),
		DoctorID:     doctorID,
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.AddDate(0, 0, expiryDays),
		Used:         false,
		PatientEmail: patientEmail,
		PatientName:  patientName,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate returns the link iff it is still active. Unknown, expired and
// already-used tokens are indistinguishable to the caller.
func (s *Service) Validate(ctx context.Context, linkID string) (*AssessmentLink, error) {
	if linkID == "" {
		return nil, apperr.ErrNotFound
	}
	return s.repo.FindActive(ctx, linkID, s.now().UTC())
}

// Consume marks the link used, exactly once. A link that was already consumed
// (or expired, or never existed) yields ErrNotFound.
func (s *Service) Consume(ctx context.Context, linkID string) error {
	ok, err := s.repo.Consume(ctx, linkID, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

// DoctorForLink resolves an active link to the issuing clinician's id
// without consuming it. Recording uploads use it to scope object keys.
func (s *Service) DoctorForLink(ctx context.Context, linkID string) (string, error) {
	l, err := s.Validate(ctx, linkID)
	if err != nil {
		return "", err
	}
	return l.DoctorID.String(), nil
}

// ListByDoctor returns the clinician's full link history, newest first,
// including used and expired links so the history can be audited.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*AssessmentLink, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// URL renders the patient-facing form URL for a link; it is what gets
// encoded into the QR code.
func (s *Service) URL(baseURL, linkID string) string {
	return fmt.Sprintf("%s/assessment?link=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(linkID))
}
