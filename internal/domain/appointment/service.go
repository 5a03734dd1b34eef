package appointment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/platform/events"
)

type Service struct {
	repo Repository
	pub  events.Publisher
	ttl  time.Duration
	now  func() time.Time
}

func NewService(repo Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{repo: repo, pub: events.Nop{}, ttl: ttl, now: time.Now}
}

func (s *Service) SetPublisher(p events.Publisher) {
	s.pub = p
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) cutoff() time.Time {
	return s.now().Add(-s.ttl)
}

func validate(a *Appointment) error {
	switch {
	case strings.TrimSpace(a.PatientName) == "":
		return fmt.Errorf("%w: patient_name is required", ErrInvalid)
	case strings.TrimSpace(a.MedicalNumber) == "":
		return fmt.Errorf("%w: medical_number is required", ErrInvalid)
	case strings.TrimSpace(a.Specialty) == "":
		return fmt.Errorf("%w: specialty is required", ErrInvalid)
	case !validTypes[a.AppointmentType]:
		return fmt.Errorf("%w: invalid appointment_type: %q", ErrInvalid, a.AppointmentType)
	case !validStatuses[a.Status]:
		return fmt.Errorf("%w: invalid status: %q", ErrInvalid, a.Status)
	}
	return nil
}

func (s *Service) BookAppointment(ctx context.Context, a *Appointment) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if err := validate(a); err != nil {
		return err
	}
	// created_at is always server time; the expiry window starts at booking
	a.CreatedAt = time.Time{}
	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("book appointment: %w", err)
	}
	s.publish(ctx, events.AppointmentBooked, a.ID.String(), map[string]string{
		"specialty": a.Specialty,
		"type":      a.AppointmentType,
	})
	return nil
}

// GetAppointment treats expired appointments as missing even before the
// purge has removed them.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Expired(s.now(), s.ttl) {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if _, err := s.GetAppointment(ctx, a.ID); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if err := validate(a); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	s.publish(ctx, events.AppointmentUpdated, a.ID.String(), map[string]string{"status": a.Status})
	return nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ListActive returns appointments booked within the TTL window, newest first.
func (s *Service) ListActive(ctx context.Context) ([]*Appointment, error) {
	return s.repo.ListCreatedAfter(ctx, s.cutoff())
}

// PurgeExpired deletes appointments older than the TTL.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteCreatedBefore(ctx, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("purge expired appointments: %w", err)
	}
	if n > 0 {
		s.publish(ctx, events.AppointmentsExpired, "appointments", map[string]string{
			"count": strconv.FormatInt(n, 10),
		})
	}
	return n, nil
}

func (s *Service) publish(ctx context.Context, typ, id string, data map[string]string) {
	_ = s.pub.Publish(ctx, events.Event{
		Type:       typ,
		EntityID:   id,
		Actor:      auth.UserIDFromContext(ctx),
		OccurredAt: s.now().UTC(),
		Data:       data,
	})
}
