package assessment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicescreen/voicescreen/internal/domain/link"
	"github.com/voicescreen/voicescreen/internal/domain/scoring"
	"github.com/voicescreen/voicescreen/internal/platform/apperr"
)

// DefaultListLimit caps list queries when the caller does not ask for more.
const DefaultListLimit = 100

// LinkService is the slice of the link domain the submission flow needs.
type LinkService interface {
	Validate(ctx context.Context, linkID string) (*link.AssessmentLink, error)
	Consume(ctx context.Context, linkID string) error
}

type Service struct {
	repo  Repository
	links LinkService
	now   func() time.Time
}

func NewService(repo Repository, links LinkService) *Service {
	return &Service{repo: repo, links: links, now: time.Now}
}

// SetClock overrides the service clock for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SubmitRequest carries one complete screening submission. Either LinkID or
// DoctorID identifies the clinician: anonymous patients submit through a
// single-use link, authenticated clinicians submit directly.
type SubmitRequest struct {
	LinkID      string
	DoctorID    uuid.UUID
	Patient     PatientInfo
	PHQ9Answers []int
	GAD7Answers []int
	AudioFiles  map[string]string
}

// Submit validates, scores and persists one assessment. Scores are always
// computed here; client-supplied scores are never trusted. When the
// submission rides a link, the link is validated up front and consumed only
// after the record is saved, so a failed save leaves the link redeemable.
// If the consume then fails, another submission won the link between
// Validate and Consume, and the just-saved record is rolled back so the
// link's single use maps to exactly one stored assessment.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Assessment, error) {
	doctorID := req.DoctorID
	if req.LinkID != "" {
		l, err := s.links.Validate(ctx, req.LinkID)
		if err != nil {
			return nil, err
		}
		doctorID = l.DoctorID
	}
	if doctorID == uuid.Nil {
		return nil, apperr.Validation("doctor_id")
	}

	if err := validatePatient(req.Patient); err != nil {
		return nil, err
	}
	if err := validateAudio(req.AudioFiles); err != nil {
		return nil, err
	}

	phq9, err := scoring.ScorePHQ9(req.PHQ9Answers)
	if err != nil {
		return nil, err
	}
	gad7, err := scoring.ScoreGAD7(req.GAD7Answers)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		Patient:     req.Patient,
		AudioFiles:  req.AudioFiles,
		PHQ9Answers: req.PHQ9Answers,
		PHQ9:        phq9,
		GAD7Answers: req.GAD7Answers,
		GAD7:        gad7,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	if req.LinkID != "" {
		if err := s.links.Consume(ctx, req.LinkID); err != nil {
			// Best effort; if the delete also fails the consume error
			// still describes why the submission was rejected.
			_ = s.repo.Delete(ctx, a.ID)
			return nil, err
		}
	}
	return a, nil
}

func validatePatient(p PatientInfo) error {
	var fields []string
	if strings.TrimSpace(p.Name) == "" {
		fields = append(fields, "patient.name")
	}
	if p.Age < 1 || p.Age > 120 {
		fields = append(fields, "patient.age")
	}
	if !p.Gender.Valid() {
		fields = append(fields, "patient.gender")
	}
	if strings.TrimSpace(p.Language) == "" {
		fields = append(fields, "patient.language")
	}
	if strings.TrimSpace(p.Education) == "" {
		fields = append(fields, "patient.education")
	}
	if !strings.Contains(p.Email, "@") {
		fields = append(fields, "patient.email")
	}
	if strings.TrimSpace(p.Clinic) == "" {
		fields = append(fields, "patient.clinic")
	}
	if strings.TrimSpace(p.PatientID) == "" {
		fields = append(fields, "patient.patient_id")
	}
	if !p.Medication.Valid() {
		fields = append(fields, "patient.medication")
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}

func validateAudio(files map[string]string) error {
	if len(files) == 0 {
		return apperr.Validation("audio_files: at least one recording required")
	}
	var fields []string
	for task, ref := range files {
		if _, ok := AudioTasks[task]; !ok {
			fields = append(fields, "audio_files."+task+": unknown task")
			continue
		}
		if ref == "" {
			fields = append(fields, "audio_files."+task+": empty reference")
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields...)
	}
	return nil
}

func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return s.repo.ByID(ctx, id)
}

func (s *Service) ByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Assessment, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Assessment, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.ByPatient(ctx, patientID, limit, offset)
}

// ByDateRange lists assessments with start <= created_at < end.
func (s *Service) ByDateRange(ctx context.Context, start, end time.Time, doctorID *uuid.UUID) ([]*Assessment, error) {
	if end.Before(start) {
		return nil, apperr.Validation("end: before start")
	}
	return s.repo.ByDateRange(ctx, start, end, doctorID)
}

// NextPatientID issues the clinician's next patient identifier, eg
// "Pd3f1-0007". The underlying counter is advanced atomically, so concurrent
// calls never hand out the same id.
func (s *Service) NextPatientID(ctx context.Context, doctorID uuid.UUID) (string, error) {
	if doctorID == uuid.Nil {
		return "", apperr.Validation("doctor_id")
	}
	n, err := s.repo.NextPatientSequence(ctx, doctorID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("P%s-%04d", doctorID.String()[:4], n), nil
}
