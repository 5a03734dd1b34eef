package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/platform/db"
	"github.com/imdcare/ward/internal/platform/events"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
	pub  events.Publisher
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, tx: db.NoTx, pub: events.Nop{}, now: time.Now}
}

// SetTxRunner makes Admit and Discharge transactional.
func (s *Service) SetTxRunner(tx db.TxRunner) {
	s.tx = tx
}

func (s *Service) SetPublisher(p events.Publisher) {
	s.pub = p
}

func validateAdmit(req *AdmitRequest) error {
	req.MRN = strings.TrimSpace(req.MRN)
	if req.MRN == "" {
		return fmt.Errorf("%w: mrn is required", ErrInvalid)
	}
	if strings.TrimSpace(req.Department) == "" {
		return fmt.Errorf("%w: department is required", ErrInvalid)
	}
	if !validShifts[req.ShiftType] {
		return fmt.Errorf("%w: invalid shift_type: %q", ErrInvalid, req.ShiftType)
	}
	if req.SafetyType != nil && *req.SafetyType == "" {
		req.SafetyType = nil
	}
	if req.SafetyType != nil && !validSafetyTypes[*req.SafetyType] {
		return fmt.Errorf("%w: invalid safety_type: %q", ErrInvalid, *req.SafetyType)
	}
	return nil
}

// Admit creates a patient with visit 1, or readmits the patient with the
// given MRN under the next visit number. Readmission fails with
// ErrActiveAdmissionExists while the previous stay is still open.
func (s *Service) Admit(ctx context.Context, req *AdmitRequest) (*Patient, error) {
	if err := validateAdmit(req); err != nil {
		return nil, err
	}
	admittedAt := s.now().UTC()
	if req.AdmissionDate != nil {
		admittedAt = *req.AdmissionDate
	}

	var p *Patient
	var readmit bool
	err := s.tx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByMRN(ctx, req.MRN)
		switch {
		case errors.Is(err, ErrNotFound):
			if strings.TrimSpace(req.Name) == "" {
				return fmt.Errorf("%w: name is required", ErrInvalid)
			}
			p = &Patient{
				Name:        req.Name,
				MRN:         req.MRN,
				DateOfBirth: req.DateOfBirth,
				Gender:      req.Gender,
				Department:  req.Department,
				DoctorName:  req.DoctorName,
				Diagnosis:   req.Diagnosis,
			}
			if err := s.repo.Create(ctx, p); err != nil {
				return fmt.Errorf("create patient: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lookup mrn: %w", err)
		default:
			if existing.ActiveAdmission() != nil {
				return ErrActiveAdmissionExists
			}
			p = existing
			readmit = true
			p.Department = req.Department
			p.Diagnosis = req.Diagnosis
			if req.DoctorName != nil {
				p.DoctorName = req.DoctorName
			}
			if err := s.repo.Update(ctx, p); err != nil {
				return fmt.Errorf("update patient: %w", err)
			}
		}

		visit, err := s.repo.MaxVisitNumber(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("next visit number: %w", err)
		}
		a := &Admission{
			PatientID:     p.ID,
			VisitNumber:   visit + 1,
			AdmissionDate: admittedAt,
			Department:    req.Department,
			ShiftType:     req.ShiftType,
			SafetyType:    req.SafetyType,
			Status:        StatusActive,
			Diagnosis:     req.Diagnosis,
			DoctorID:      req.DoctorID,
		}
		if err := s.repo.CreateAdmission(ctx, a); err != nil {
			return fmt.Errorf("create admission: %w", err)
		}
		p.Admissions, err = s.repo.ListAdmissions(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	evt := events.PatientAdmitted
	if readmit {
		evt = events.PatientReadmitted
	}
	s.publish(ctx, evt, p, map[string]string{
		"mrn":          p.MRN,
		"department":   req.Department,
		"visit_number": strconv.Itoa(p.ActiveAdmission().VisitNumber),
	})
	return p, nil
}

// Discharge closes the patient's active admission.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, req DischargeRequest) (*Patient, error) {
	at := s.now().UTC()
	if req.DischargeDate != nil {
		at = *req.DischargeDate
	}

	var p *Patient
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		a := p.ActiveAdmission()
		if a == nil {
			return ErrNoActiveAdmission
		}
		if at.Before(a.AdmissionDate) {
			return fmt.Errorf("%w: discharge_date is before admission_date", ErrInvalid)
		}
		a.Status = StatusDischarged
		a.DischargeDate = &at
		return s.repo.UpdateAdmission(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.PatientDischarged, p, map[string]string{"mrn": p.MRN})
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetPatientByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

// UpdatePatient changes demographics. Admissions are only changed through
// Admit and Discharge.
func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.TrimSpace(p.MRN) == "" {
		return fmt.Errorf("%w: mrn is required", ErrInvalid)
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	admissions, err := s.repo.ListAdmissions(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Admissions = admissions
	return nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.PatientDeleted, &Patient{ID: id}, nil)
	return nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListAllPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListAdmissions(ctx context.Context, patientID uuid.UUID) ([]*Admission, error) {
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListAdmissions(ctx, patientID)
}

func (s *Service) publish(ctx context.Context, typ string, p *Patient, data map[string]string) {
	_ = s.pub.Publish(ctx, events.Event{
		Type:       typ,
		EntityID:   p.ID.String(),
		Actor:      auth.UserIDFromContext(ctx),
		OccurredAt: s.now().UTC(),
		Data:       data,
	})
}
