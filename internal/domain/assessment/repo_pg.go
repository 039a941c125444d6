package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
	"github.com/voicescreen/voicescreen/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the assessments and
// patient_sequence tables.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const assessmentCols = `id, doctor_id,
	patient_name, patient_age, patient_gender, patient_language,
	patient_education, patient_email, patient_clinic, patient_id, medication,
	audio_files,
	phq9_answers, phq9_score, phq9_severity, phq9_action,
	gad7_answers, gad7_score, gad7_severity,
	created_at`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	err := row.Scan(
		&a.ID, &a.DoctorID,
		&a.Patient.Name, &a.Patient.Age, &a.Patient.Gender, &a.Patient.Language,
		&a.Patient.Education, &a.Patient.Email, &a.Patient.Clinic, &a.Patient.PatientID, &a.Patient.Medication,
		&a.AudioFiles,
		&a.PHQ9Answers, &a.PHQ9.Score, &a.PHQ9.Severity, &a.PHQ9.Action,
		&a.GAD7Answers, &a.GAD7.Score, &a.GAD7.Severity,
		&a.CreatedAt,
	)
	return &a, err
}

func (r *repoPG) Save(ctx context.Context, a *Assessment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assessments (
			id, doctor_id,
			patient_name, patient_age, patient_gender, patient_language,
			patient_education, patient_email, patient_clinic, patient_id, medication,
			audio_files,
			phq9_answers, phq9_score, phq9_severity, phq9_action,
			gad7_answers, gad7_score, gad7_severity,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		a.ID, a.DoctorID,
		a.Patient.Name, a.Patient.Age, a.Patient.Gender, a.Patient.Language,
		a.Patient.Education, a.Patient.Email, a.Patient.Clinic, a.Patient.PatientID, a.Patient.Medication,
		a.AudioFiles,
		a.PHQ9Answers, a.PHQ9.Score, a.PHQ9.Severity, a.PHQ9.Action,
		a.GAD7Answers, a.GAD7.Score, a.GAD7.Severity,
		a.CreatedAt)
	if err != nil {
		return apperr.Persistence("insert assessment", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id); err != nil {
		return apperr.Persistence("delete assessment", err)
	}
	return nil
}

func (r *repoPG) ByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	a, err := scanAssessment(r.pool.QueryRow(ctx, `
		SELECT `+assessmentCols+` FROM assessments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find assessment", err)
	}
	return a, nil
}

func (r *repoPG) ByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Assessment, int, error) {
	q := `SELECT ` + assessmentCols + ` FROM assessments WHERE doctor_id = $1 ORDER BY created_at DESC`
	items, err := r.list(ctx, q+pageClause(limit, offset), doctorID)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.count(ctx, `SELECT COUNT(*) FROM assessments WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) ByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Assessment, int, error) {
	q := `SELECT ` + assessmentCols + ` FROM assessments WHERE patient_id = $1 ORDER BY created_at DESC`
	items, err := r.list(ctx, q+pageClause(limit, offset), patientID)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.count(ctx, `SELECT COUNT(*) FROM assessments WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) count(ctx context.Context, query string, arg any) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&total); err != nil {
		return 0, apperr.Persistence("count assessments", err)
	}
	return total, nil
}

// pageClause renders LIMIT/OFFSET; limit <= 0 means unbounded.
func pageClause(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	return " " + pagination.Params{Limit: limit, Offset: offset}.SQL()
}

func (r *repoPG) ByDateRange(ctx context.Context, start, end time.Time, doctorID *uuid.UUID) ([]*Assessment, error) {
	q := `SELECT ` + assessmentCols + ` FROM assessments WHERE created_at >= $1 AND created_at < $2`
	args := []any{start, end}
	if doctorID != nil {
		q += fmt.Sprintf(` AND doctor_id = $%d`, len(args)+1)
		args = append(args, *doctorID)
	}
	q += ` ORDER BY created_at DESC`
	return r.list(ctx, q, args...)
}

func (r *repoPG) NextPatientSequence(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO patient_sequence (doctor_id, last_number) VALUES ($1, 1)
		ON CONFLICT (doctor_id)
		DO UPDATE SET last_number = patient_sequence.last_number + 1
		RETURNING last_number`,
		doctorID).Scan(&n)
	if err != nil {
		return 0, apperr.Persistence("advance patient sequence", err)
	}
	return n, nil
}

func (r *repoPG) list(ctx context.Context, q string, args ...any) ([]*Assessment, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Persistence("list assessments", err)
	}
	defer rows.Close()
	var out []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, apperr.Persistence("scan assessment", err)
		}
		out = append(out, a)
	}
	return out, nil
}
