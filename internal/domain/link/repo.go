package link

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence collaborator for assessment links. It owns
// the durable copies; the service never caches link state across calls.
type Repository interface {
	Create(ctx context.Context, l *AssessmentLink) error
	// FindActive returns the link only if it is unused and unexpired at now.
	FindActive(ctx context.Context, linkID string, now time.Time) (*AssessmentLink, error)
	// Consume flips used to true iff the link is still active at now. It
	// reports whether a row transitioned, making redemption exactly-once.
	Consume(ctx context.Context, linkID string, now time.Time) (bool, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*AssessmentLink, error)
}
