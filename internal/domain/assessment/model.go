package assessment

import (
	"time"

	"github.com/google/uuid"

	"github.com/voicescreen/voicescreen/internal/domain/scoring"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type Medication string

const (
	MedicationYes Medication = "Yes"
	MedicationNo  Medication = "No"
)

func (m Medication) Valid() bool {
	return m == MedicationYes || m == MedicationNo
}

// AudioTasks maps each voice-recording task to its duration in seconds. The
// task keys double as the only accepted keys in a submission's audio_files.
var AudioTasks = map[string]int{
	"animals":  60,
	"feeling":  120,
	"image":    60,
	"counting": 30,
	"reading":  120,
}

// PatientInfo is the demographic block captured with every assessment.
// PatientID is the clinician-scoped identifier (see Service.NextPatientID),
// not a database key.
type PatientInfo struct {
	Name       string     `db:"patient_name" json:"name"`
	Age        int        `db:"patient_age" json:"age"`
	Gender     Gender     `db:"patient_gender" json:"gender"`
	Language   string     `db:"patient_language" json:"language"`
	Education  string     `db:"patient_education" json:"education"`
	Email      string     `db:"patient_email" json:"email"`
	Clinic     string     `db:"patient_clinic" json:"clinic"`
	PatientID  string     `db:"patient_id" json:"patient_id"`
	Medication Medication `db:"medication" json:"medication"`
}

// Assessment is one completed screening. Records are immutable once saved;
// there are no update paths.
type Assessment struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	DoctorID    uuid.UUID          `db:"doctor_id" json:"doctor_id"`
	Patient     PatientInfo        `json:"patient"`
	AudioFiles  map[string]string  `db:"audio_files" json:"audio_files"`
	PHQ9Answers []int              `db:"phq9_answers" json:"phq9_answers"`
	PHQ9        scoring.PHQ9Result `json:"phq9"`
	GAD7Answers []int              `db:"gad7_answers" json:"gad7_answers"`
	GAD7        scoring.GAD7Result `json:"gad7"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}
