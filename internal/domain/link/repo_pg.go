package link

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the assessment_links table.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const linkCols = `link_id, doctor_id, created_at, expires_at, used, patient_email, patient_name`

func scanLink(row pgx.Row) (*AssessmentLink, error) {
	var l AssessmentLink
	err := row.Scan(&l.LinkID, &l.DoctorID, &l.CreatedAt, &l.ExpiresAt, &l.Used, &l.PatientEmail, &l.PatientName)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, l *AssessmentLink) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assessment_links (link_id, doctor_id, created_at, expires_at, used, patient_email, patient_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		l.LinkID, l.DoctorID, l.CreatedAt, l.ExpiresAt, l.Used, l.PatientEmail, l.PatientName)
	if err != nil {
		return apperr.Persistence("insert assessment link", err)
	}
	return nil
}

func (r *repoPG) FindActive(ctx context.Context, linkID string, now time.Time) (*AssessmentLink, error) {
	l, err := scanLink(r.pool.QueryRow(ctx, `
		SELECT `+linkCols+` FROM assessment_links
		WHERE link_id = $1 AND used = FALSE AND expires_at > $2`,
		linkID, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("find assessment link", err)
	}
	return l, nil
}

func (r *repoPG) Consume(ctx context.Context, linkID string, now time.Time) (bool, error) {
	// Conditional update: only an active link transitions, so two concurrent
	// redemptions cannot both succeed.
	tag, err := r.pool.Exec(ctx, `
		UPDATE assessment_links SET used = TRUE
		WHERE link_id = $1 AND used = FALSE AND expires_at > $2`,
		linkID, now)
	if err != nil {
		return false, apperr.Persistence("consume assessment link", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*AssessmentLink, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+linkCols+` FROM assessment_links
		WHERE doctor_id = $1 ORDER BY created_at DESC`,
		doctorID)
	if err != nil {
		return nil, apperr.Persistence("list assessment links", err)
	}
	defer rows.Close()
	var links []*AssessmentLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, apperr.Persistence("scan assessment link", err)
		}
		links = append(links, l)
	}
	return links, nil
}
