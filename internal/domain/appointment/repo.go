package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListCreatedAfter returns appointments created strictly after cutoff,
	// newest first.
	ListCreatedAfter(ctx context.Context, cutoff time.Time) ([]*Appointment, error)
	// DeleteCreatedBefore removes appointments created strictly before cutoff.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
