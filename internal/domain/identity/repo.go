package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists clinician accounts. Create returns apperr.ErrDuplicate
// when the email is already registered.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	ByEmail(ctx context.Context, email string) (*Doctor, error)
	ByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
}
