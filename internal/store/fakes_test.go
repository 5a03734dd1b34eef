package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
)

var errBackend = errors.New("connection refused")

type fakePatients struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*patient.Patient
	failList bool
	block    chan struct{}
}

func newFakePatients() *fakePatients {
	return &fakePatients{rows: make(map[uuid.UUID]*patient.Patient)}
}

func (f *fakePatients) Admit(_ context.Context, req *patient.AdmitRequest) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.MRN == "" {
		return nil, patient.ErrInvalid
	}
	p := &patient.Patient{ID: uuid.New(), Name: req.Name, MRN: req.MRN, Department: req.Department}
	p.Admissions = []*patient.Admission{{
		ID: uuid.New(), PatientID: p.ID, VisitNumber: 1, Department: req.Department,
		Status: patient.StatusActive, AdmissionDate: time.Now(),
	}}
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakePatients) Discharge(_ context.Context, id uuid.UUID, _ patient.DischargeRequest) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	a := p.ActiveAdmission()
	if a == nil {
		return nil, patient.ErrNoActiveAdmission
	}
	now := time.Now()
	a.Status = patient.StatusDischarged
	a.DischargeDate = &now
	return p, nil
}

func (f *fakePatients) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		return p, nil
	}
	return nil, patient.ErrNotFound
}

func (f *fakePatients) GetPatientByMRN(_ context.Context, mrn string) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.MRN == mrn {
			return p, nil
		}
	}
	return nil, patient.ErrNotFound
}

func (f *fakePatients) UpdatePatient(_ context.Context, p *patient.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID]; !ok {
		return patient.ErrNotFound
	}
	f.rows[p.ID] = p
	return nil
}

func (f *fakePatients) DeletePatient(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return patient.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakePatients) ListPatients(ctx context.Context, _, _ int) ([]*patient.Patient, int, error) {
	all, err := f.ListAllPatients(ctx)
	return all, len(all), err
}

func (f *fakePatients) ListAdmissions(_ context.Context, id uuid.UUID) ([]*patient.Admission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		return p.Admissions, nil
	}
	return nil, patient.ErrNotFound
}

func (f *fakePatients) ListAllPatients(_ context.Context) ([]*patient.Patient, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errBackend
	}
	var out []*patient.Patient
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

type fakeConsultations struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*consultation.Consultation
}

func newFakeConsultations() *fakeConsultations {
	return &fakeConsultations{rows: make(map[uuid.UUID]*consultation.Consultation)}
}

func (f *fakeConsultations) CreateConsultation(_ context.Context, c *consultation.Consultation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	c.Status = consultation.StatusActive
	c.CreatedAt = time.Now()
	f.rows[c.ID] = c
	return nil
}

func (f *fakeConsultations) GetConsultation(_ context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		return c, nil
	}
	return nil, consultation.ErrNotFound
}

func (f *fakeConsultations) UpdateConsultation(_ context.Context, c *consultation.Consultation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[c.ID] = c
	return nil
}

func (f *fakeConsultations) CloseConsultation(_ context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, consultation.ErrNotFound
	}
	c.Status = consultation.StatusClosed
	return c, nil
}

func (f *fakeConsultations) DeleteConsultation(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeConsultations) ListConsultations(ctx context.Context, _ consultation.ListFilter, _, _ int) ([]*consultation.Consultation, int, error) {
	all, err := f.ListAllConsultations(ctx)
	return all, len(all), err
}

func (f *fakeConsultations) ListAllConsultations(_ context.Context) ([]*consultation.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*consultation.Consultation
	for _, c := range f.rows {
		out = append(out, c)
	}
	return out, nil
}

type fakeAppointments struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*appointment.Appointment
	now  time.Time
}

func newFakeAppointments(now time.Time) *fakeAppointments {
	return &fakeAppointments{rows: make(map[uuid.UUID]*appointment.Appointment), now: now}
}

func (f *fakeAppointments) TTL() time.Duration { return appointment.DefaultTTL }

func (f *fakeAppointments) BookAppointment(_ context.Context, a *appointment.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uuid.New()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = f.now
	}
	if a.Status == "" {
		a.Status = appointment.StatusPending
	}
	f.rows[a.ID] = a
	return nil
}

func (f *fakeAppointments) GetAppointment(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.rows[id]; ok {
		return a, nil
	}
	return nil, appointment.ErrNotFound
}

func (f *fakeAppointments) UpdateAppointment(_ context.Context, a *appointment.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[a.ID] = a
	return nil
}

func (f *fakeAppointments) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeAppointments) ListActive(_ context.Context) ([]*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range f.rows {
		if !a.Expired(f.now, appointment.DefaultTTL) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) PurgeExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, a := range f.rows {
		if a.Expired(f.now, appointment.DefaultTTL) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointments) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
