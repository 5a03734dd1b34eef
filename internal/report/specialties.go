package report

import (
	"time"

	"github.com/samber/lo"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
)

// Specialties is the fixed list of ward specialties, in board order.
var Specialties = []string{
	"Internal Medicine",
	"Pulmonology",
	"Neurology",
	"Gastroenterology",
	"Rheumatology",
	"Endocrinology",
	"Hematology",
	"Infectious Disease",
	"Thrombosis Medicine",
	"Immunology & Allergy",
	"Safety Admission",
}

func IsSpecialty(name string) bool {
	return lo.Contains(Specialties, name)
}

// BoardConsultation is an active consultation with the patient it refers to,
// when a patient with that MRN is known.
type BoardConsultation struct {
	*consultation.Consultation
	PatientID *string `json:"patient_id,omitempty"`
}

type SpecialtyBoard struct {
	Specialty     string              `json:"specialty"`
	Patients      []patient.Summary   `json:"patients"`
	Consultations []BoardConsultation `json:"consultations"`
}

// Board lists active patients and active consultations for one specialty.
func Board(data Dataset, specialty string) SpecialtyBoard {
	byMRN := lo.KeyBy(data.Patients, func(p *patient.Patient) string { return p.MRN })

	b := SpecialtyBoard{
		Specialty:     specialty,
		Patients:      []patient.Summary{},
		Consultations: []BoardConsultation{},
	}
	for _, p := range data.Patients {
		if lo.SomeBy(p.Admissions, func(a *patient.Admission) bool {
			return a.Department == specialty && a.Status == patient.StatusActive
		}) {
			b.Patients = append(b.Patients, patient.ToSummary(p))
		}
	}
	for _, c := range data.Consultations {
		if c.ConsultationSpecialty != specialty || c.Status != consultation.StatusActive {
			continue
		}
		bc := BoardConsultation{Consultation: c}
		if p, ok := byMRN[c.MRN]; ok {
			id := p.ID.String()
			bc.PatientID = &id
		}
		b.Consultations = append(b.Consultations, bc)
	}
	return b
}

// Boards builds the board for every known specialty.
func Boards(data Dataset) []SpecialtyBoard {
	return lo.Map(Specialties, func(s string, _ int) SpecialtyBoard {
		return Board(data, s)
	})
}

type Stats struct {
	ActivePatients      int `json:"active_patients"`
	TodaysAdmissions    int `json:"todays_admissions"`
	ActiveConsultations int `json:"active_consultations"`
	PendingAppointments int `json:"pending_appointments"`
}

// DashboardStats summarises the dataset as of now.
func DashboardStats(data Dataset, now time.Time) Stats {
	today := dayKey(now)
	return Stats{
		ActivePatients: lo.CountBy(data.Patients, func(p *patient.Patient) bool {
			return p.ActiveAdmission() != nil
		}),
		TodaysAdmissions: lo.CountBy(data.Patients, func(p *patient.Patient) bool {
			a := p.ActiveAdmission()
			return a != nil && dayKey(a.AdmissionDate) == today
		}),
		ActiveConsultations: lo.CountBy(data.Consultations, func(c *consultation.Consultation) bool {
			return c.Status == consultation.StatusActive
		}),
		PendingAppointments: lo.CountBy(data.Appointments, func(a *appointment.Appointment) bool {
			return a.Status == appointment.StatusPending
		}),
	}
}
