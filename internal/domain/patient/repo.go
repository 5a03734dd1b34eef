package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// ListAll returns every patient with admissions attached.
	ListAll(ctx context.Context) ([]*Patient, error)

	// Admissions
	CreateAdmission(ctx context.Context, a *Admission) error
	UpdateAdmission(ctx context.Context, a *Admission) error
	ListAdmissions(ctx context.Context, patientID uuid.UUID) ([]*Admission, error)
	MaxVisitNumber(ctx context.Context, patientID uuid.UUID) (int, error)
}
