package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
	"github.com/imdcare/ward/internal/report"
)

type PatientService interface {
	patient.Manager
	ListAllPatients(ctx context.Context) ([]*patient.Patient, error)
}

type ConsultationService interface {
	consultation.Manager
	ListAllConsultations(ctx context.Context) ([]*consultation.Consultation, error)
}

type AppointmentService interface {
	appointment.Manager
	TTL() time.Duration
}

// PatientStore caches every patient with admissions and implements
// patient.Manager so handlers keep it in sync.
type PatientStore struct {
	*Collection[*patient.Patient]
	svc PatientService
}

func NewPatientStore(svc PatientService, logger zerolog.Logger) *PatientStore {
	return &PatientStore{
		Collection: NewCollection("patients", svc.ListAllPatients,
			func(p *patient.Patient) string { return p.ID.String() }, logger),
		svc: svc,
	}
}

func (s *PatientStore) Admit(ctx context.Context, req *patient.AdmitRequest) (*patient.Patient, error) {
	var out *patient.Patient
	err := s.mutate(func() (*patient.Patient, bool, error) {
		p, err := s.svc.Admit(ctx, req)
		out = p
		return p, p != nil, err
	})
	return out, err
}

func (s *PatientStore) Discharge(ctx context.Context, id uuid.UUID, req patient.DischargeRequest) (*patient.Patient, error) {
	var out *patient.Patient
	err := s.mutate(func() (*patient.Patient, bool, error) {
		p, err := s.svc.Discharge(ctx, id, req)
		out = p
		return p, p != nil, err
	})
	return out, err
}

func (s *PatientStore) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.svc.GetPatient(ctx, id)
}

func (s *PatientStore) GetPatientByMRN(ctx context.Context, mrn string) (*patient.Patient, error) {
	return s.svc.GetPatientByMRN(ctx, mrn)
}

func (s *PatientStore) UpdatePatient(ctx context.Context, p *patient.Patient) error {
	return s.mutate(func() (*patient.Patient, bool, error) {
		err := s.svc.UpdatePatient(ctx, p)
		return p, true, err
	})
}

func (s *PatientStore) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.mutate(func() (*patient.Patient, bool, error) {
		return nil, false, s.svc.DeletePatient(ctx, id)
	}); err != nil {
		return err
	}
	s.remove(id.String())
	return nil
}

func (s *PatientStore) ListPatients(ctx context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return s.svc.ListPatients(ctx, limit, offset)
}

func (s *PatientStore) ListAdmissions(ctx context.Context, patientID uuid.UUID) ([]*patient.Admission, error) {
	return s.svc.ListAdmissions(ctx, patientID)
}

type ConsultationStore struct {
	*Collection[*consultation.Consultation]
	svc ConsultationService
}

func NewConsultationStore(svc ConsultationService, logger zerolog.Logger) *ConsultationStore {
	return &ConsultationStore{
		Collection: NewCollection("consultations", svc.ListAllConsultations,
			func(c *consultation.Consultation) string { return c.ID.String() }, logger),
		svc: svc,
	}
}

func (s *ConsultationStore) CreateConsultation(ctx context.Context, c *consultation.Consultation) error {
	return s.mutate(func() (*consultation.Consultation, bool, error) {
		return c, true, s.svc.CreateConsultation(ctx, c)
	})
}

func (s *ConsultationStore) GetConsultation(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	return s.svc.GetConsultation(ctx, id)
}

func (s *ConsultationStore) UpdateConsultation(ctx context.Context, c *consultation.Consultation) error {
	return s.mutate(func() (*consultation.Consultation, bool, error) {
		return c, true, s.svc.UpdateConsultation(ctx, c)
	})
}

func (s *ConsultationStore) CloseConsultation(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	var out *consultation.Consultation
	err := s.mutate(func() (*consultation.Consultation, bool, error) {
		c, err := s.svc.CloseConsultation(ctx, id)
		out = c
		return c, c != nil, err
	})
	return out, err
}

func (s *ConsultationStore) DeleteConsultation(ctx context.Context, id uuid.UUID) error {
	if err := s.mutate(func() (*consultation.Consultation, bool, error) {
		return nil, false, s.svc.DeleteConsultation(ctx, id)
	}); err != nil {
		return err
	}
	s.remove(id.String())
	return nil
}

func (s *ConsultationStore) ListConsultations(ctx context.Context, f consultation.ListFilter, limit, offset int) ([]*consultation.Consultation, int, error) {
	return s.svc.ListConsultations(ctx, f, limit, offset)
}

// AppointmentStore caches appointments inside the expiry window.
type AppointmentStore struct {
	*Collection[*appointment.Appointment]
	svc AppointmentService
}

func NewAppointmentStore(svc AppointmentService, logger zerolog.Logger) *AppointmentStore {
	return &AppointmentStore{
		Collection: NewCollection("appointments", svc.ListActive,
			func(a *appointment.Appointment) string { return a.ID.String() }, logger),
		svc: svc,
	}
}

func (s *AppointmentStore) BookAppointment(ctx context.Context, a *appointment.Appointment) error {
	return s.mutate(func() (*appointment.Appointment, bool, error) {
		return a, true, s.svc.BookAppointment(ctx, a)
	})
}

func (s *AppointmentStore) GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	return s.svc.GetAppointment(ctx, id)
}

func (s *AppointmentStore) UpdateAppointment(ctx context.Context, a *appointment.Appointment) error {
	return s.mutate(func() (*appointment.Appointment, bool, error) {
		return a, true, s.svc.UpdateAppointment(ctx, a)
	})
}

func (s *AppointmentStore) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.mutate(func() (*appointment.Appointment, bool, error) {
		return nil, false, s.svc.DeleteAppointment(ctx, id)
	}); err != nil {
		return err
	}
	s.remove(id.String())
	return nil
}

func (s *AppointmentStore) ListActive(ctx context.Context) ([]*appointment.Appointment, error) {
	return s.svc.ListActive(ctx)
}

// PurgeExpired deletes expired rows and then reloads the store.
func (s *AppointmentStore) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.svc.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Fetch(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Active returns cached appointments that have not expired as of now.
func (s *AppointmentStore) Active(now time.Time) []*appointment.Appointment {
	ttl := s.svc.TTL()
	var out []*appointment.Appointment
	for _, a := range s.Items() {
		if !a.Expired(now, ttl) {
			out = append(out, a)
		}
	}
	return out
}

// Stores groups the three ward collections.
type Stores struct {
	Patients      *PatientStore
	Consultations *ConsultationStore
	Appointments  *AppointmentStore
	now           func() time.Time
}

func New(p PatientService, c ConsultationService, a AppointmentService, logger zerolog.Logger) *Stores {
	return &Stores{
		Patients:      NewPatientStore(p, logger),
		Consultations: NewConsultationStore(c, logger),
		Appointments:  NewAppointmentStore(a, logger),
		now:           time.Now,
	}
}

// Refresh fetches all three collections concurrently. A failing collection
// keeps its previous items and does not stop the others.
func (s *Stores) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Patients.Fetch(ctx) })
	g.Go(func() error { return s.Consultations.Fetch(ctx) })
	g.Go(func() error { return s.Appointments.Fetch(ctx) })
	return g.Wait()
}

// Dataset implements report.Source.
func (s *Stores) Dataset() report.Dataset {
	return report.Dataset{
		Patients:      s.Patients.Items(),
		Consultations: s.Consultations.Items(),
		Appointments:  s.Appointments.Active(s.now()),
	}
}

func (s *Stores) Statuses() []Status {
	return []Status{
		s.Patients.Status(),
		s.Consultations.Status(),
		s.Appointments.Status(),
	}
}
