package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/platform/events"
)

type Service struct {
	repo Repository
	pub  events.Publisher
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, pub: events.Nop{}, now: time.Now}
}

func (s *Service) SetPublisher(p events.Publisher) {
	s.pub = p
}

func validate(c *Consultation) error {
	switch {
	case strings.TrimSpace(c.PatientName) == "":
		return fmt.Errorf("%w: patient_name is required", ErrInvalid)
	case strings.TrimSpace(c.MRN) == "":
		return fmt.Errorf("%w: mrn is required", ErrInvalid)
	case strings.TrimSpace(c.RequestingDepartment) == "":
		return fmt.Errorf("%w: requesting_department is required", ErrInvalid)
	case strings.TrimSpace(c.ConsultationSpecialty) == "":
		return fmt.Errorf("%w: consultation_specialty is required", ErrInvalid)
	case !validUrgencies[c.Urgency]:
		return fmt.Errorf("%w: invalid urgency: %q", ErrInvalid, c.Urgency)
	case !validShifts[c.ShiftType]:
		return fmt.Errorf("%w: invalid shift_type: %q", ErrInvalid, c.ShiftType)
	case c.Status != StatusActive && c.Status != StatusClosed:
		return fmt.Errorf("%w: invalid status: %q", ErrInvalid, c.Status)
	}
	return nil
}

func (s *Service) CreateConsultation(ctx context.Context, c *Consultation) error {
	if c.Status == "" {
		c.Status = StatusActive
	}
	if err := validate(c); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return fmt.Errorf("create consultation: %w", err)
	}
	s.publish(ctx, events.ConsultationRequested, c)
	return nil
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateConsultation(ctx context.Context, c *Consultation) error {
	if c.Status == "" {
		c.Status = StatusActive
	}
	if err := validate(c); err != nil {
		return err
	}
	return s.repo.Update(ctx, c)
}

// CloseConsultation marks an active consultation as answered.
func (s *Service) CloseConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusClosed {
		return nil, ErrAlreadyClosed
	}
	c.Status = StatusClosed
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ConsultationClosed, c)
	return c, nil
}

func (s *Service) DeleteConsultation(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListConsultations(ctx context.Context, f ListFilter, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListAllConsultations(ctx context.Context) ([]*Consultation, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) publish(ctx context.Context, typ string, c *Consultation) {
	_ = s.pub.Publish(ctx, events.Event{
		Type:       typ,
		EntityID:   c.ID.String(),
		Actor:      auth.UserIDFromContext(ctx),
		OccurredAt: s.now().UTC(),
		Data: map[string]string{
			"mrn":       c.MRN,
			"specialty": c.ConsultationSpecialty,
			"urgency":   c.Urgency,
		},
	})
}
