package patient

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound              = errors.New("patient not found")
	ErrInvalid               = errors.New("invalid patient")
	ErrDuplicateMRN          = errors.New("mrn already in use")
	ErrActiveAdmissionExists = errors.New("patient already has an active admission")
	ErrNoActiveAdmission     = errors.New("patient has no active admission")
)

const (
	StatusActive     = "active"
	StatusDischarged = "discharged"
)

var validShifts = map[string]bool{
	"morning": true,
	"evening": true,
	"night":   true,
}

var validSafetyTypes = map[string]bool{
	"emergency":   true,
	"observation": true,
	"short-stay":  true,
}

type Patient struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	MRN         string       `json:"mrn"`
	DateOfBirth *time.Time   `json:"date_of_birth,omitempty"`
	Gender      string       `json:"gender"`
	Department  string       `json:"department"`
	DoctorName  *string      `json:"doctor_name,omitempty"`
	Diagnosis   string       `json:"diagnosis"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Admissions  []*Admission `json:"admissions"`
}

type Admission struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	VisitNumber   int        `json:"visit_number"`
	AdmissionDate time.Time  `json:"admission_date"`
	DischargeDate *time.Time `json:"discharge_date,omitempty"`
	Department    string     `json:"department"`
	ShiftType     string     `json:"shift_type"`
	SafetyType    *string    `json:"safety_type,omitempty"`
	Status        string     `json:"status"`
	Diagnosis     string     `json:"diagnosis"`
	DoctorID      *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName    *string    `json:"doctor_name,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsReadmission is true for every stay after the first.
func (a *Admission) IsReadmission() bool {
	return a.VisitNumber > 1
}

// ActiveAdmission returns the patient's active admission, or nil.
func (p *Patient) ActiveAdmission() *Admission {
	for _, a := range p.Admissions {
		if a.Status == StatusActive {
			return a
		}
	}
	return nil
}

// FirstAdmission returns the admission with the lowest visit number.
// Admissions are kept sorted, but callers may hand us unsorted data.
func (p *Patient) FirstAdmission() *Admission {
	var first *Admission
	for _, a := range p.Admissions {
		if first == nil || a.VisitNumber < first.VisitNumber {
			first = a
		}
	}
	return first
}

// SafetyBadge is the safety type shown on the patient card. It comes from the
// first admission only.
func (p *Patient) SafetyBadge() string {
	if first := p.FirstAdmission(); first != nil && first.SafetyType != nil {
		return *first.SafetyType
	}
	return ""
}

// AdmitRequest admits a new patient or readmits an existing one by MRN.
type AdmitRequest struct {
	MRN           string     `json:"mrn"`
	Name          string     `json:"name"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Gender        string     `json:"gender"`
	Department    string     `json:"department"`
	DoctorID      *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName    *string    `json:"doctor_name,omitempty"`
	Diagnosis     string     `json:"diagnosis"`
	ShiftType     string     `json:"shift_type"`
	SafetyType    *string    `json:"safety_type,omitempty"`
	AdmissionDate *time.Time `json:"admission_date,omitempty"`
}

type DischargeRequest struct {
	DischargeDate *time.Time `json:"discharge_date,omitempty"`
}

// Summary is the list view of a patient with the safety badge resolved.
type Summary struct {
	*Patient
	SafetyBadge string `json:"safety_badge,omitempty"`
	Readmitted  bool   `json:"readmitted"`
}

func ToSummary(p *Patient) Summary {
	s := Summary{Patient: p, SafetyBadge: p.SafetyBadge()}
	if a := p.ActiveAdmission(); a != nil {
		s.Readmitted = a.IsReadmission()
	}
	return s
}
