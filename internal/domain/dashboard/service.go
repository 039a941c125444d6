// Package dashboard computes the clinician's summary statistics as a
// read-only projection over their assessment history.
package dashboard

import (
	"context"

	"github.com/google/uuid"

	"github.com/voicescreen/voicescreen/internal/domain/assessment"
)

// Stats summarizes one clinician's screening history. Distribution maps key
// on the stored labels (gender values, severity labels).
type Stats struct {
	TotalAssessments int            `json:"total_assessments"`
	DistinctPatients int            `json:"distinct_patients"`
	AveragePHQ9      float64        `json:"average_phq9"`
	GenderCounts     map[string]int `json:"gender_counts"`
	PHQ9Severity     map[string]int `json:"phq9_severity"`
	GAD7Severity     map[string]int `json:"gad7_severity"`
}

// AssessmentSource is the slice of the assessment repository the dashboard
// reads from.
type AssessmentSource interface {
	ByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*assessment.Assessment, int, error)
}

type Service struct {
	assessments AssessmentSource
}

func NewService(assessments AssessmentSource) *Service {
	return &Service{assessments: assessments}
}

// Stats aggregates over the clinician's complete history (limit 0 =
// unbounded) in one pass.
func (s *Service) Stats(ctx context.Context, doctorID uuid.UUID) (*Stats, error) {
	records, _, err := s.assessments.ByDoctor(ctx, doctorID, 0, 0)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		GenderCounts: make(map[string]int),
		PHQ9Severity: make(map[string]int),
		GAD7Severity: make(map[string]int),
	}
	patients := make(map[string]struct{})
	phq9Total := 0
	for _, a := range records {
		st.TotalAssessments++
		patients[a.Patient.PatientID] = struct{}{}
		phq9Total += a.PHQ9.Score
		st.GenderCounts[string(a.Patient.Gender)]++
		st.PHQ9Severity[a.PHQ9.Severity]++
		st.GAD7Severity[a.GAD7.Severity]++
	}
	st.DistinctPatients = len(patients)
	if st.TotalAssessments > 0 {
		st.AveragePHQ9 = float64(phq9Total) / float64(st.TotalAssessments)
	}
	return st, nil
}
