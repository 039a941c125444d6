package identity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// Doctor is a clinician account. QRCode holds the onboarding QR as a PNG
// data URI; scanning it opens the patient intake form pre-bound to this
// doctor.
type Doctor struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         string    `db:"role" json:"role"`
	QRCode       string    `db:"qr_code" json:"qr_code,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
