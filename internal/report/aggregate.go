package report

import (
	"time"

	"github.com/samber/lo"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
)

const notAssigned = "Not assigned"

// AdmissionRow is one patient in the active admissions table.
type AdmissionRow struct {
	PatientID     string    `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	MRN           string    `json:"mrn"`
	Department    string    `json:"department"`
	AdmissionDate time.Time `json:"admission_date"`
	Shift         string    `json:"shift"`
	Doctor        string    `json:"doctor"`
	Diagnosis     string    `json:"diagnosis"`
	VisitNumber   int       `json:"visit_number"`
	SafetyType    string    `json:"safety_type,omitempty"`
}

type ConsultationRow struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patient_name"`
	MRN         string    `json:"mrn"`
	Specialty   string    `json:"specialty"`
	Date        time.Time `json:"date"`
	Shift       string    `json:"shift"`
	Urgency     string    `json:"urgency"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
}

type AppointmentRow struct {
	ID            string    `json:"id"`
	PatientName   string    `json:"patient_name"`
	MedicalNumber string    `json:"medical_number"`
	Specialty     string    `json:"specialty"`
	Date          time.Time `json:"date"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
}

// Filtered holds the three tables for one filter. All three are always
// computed; Tab only tells consumers which to show.
type Filtered struct {
	Filter        Filter            `json:"-"`
	Admissions    []AdmissionRow    `json:"admissions"`
	Consultations []ConsultationRow `json:"consultations"`
	Appointments  []AppointmentRow  `json:"appointments"`
}

// Aggregate filters the dataset by date range and specialty.
func Aggregate(data Dataset, f Filter) Filtered {
	out := Filtered{
		Filter:        f,
		Admissions:    []AdmissionRow{},
		Consultations: []ConsultationRow{},
		Appointments:  []AppointmentRow{},
	}
	if f.Range.Empty() {
		return out
	}

	for _, p := range data.Patients {
		a := p.ActiveAdmission()
		if a == nil {
			continue
		}
		if !f.Range.Contains(a.AdmissionDate) || !f.matchesSpecialty(a.Department) {
			continue
		}
		out.Admissions = append(out.Admissions, admissionRow(p, a))
	}

	out.Consultations = lo.FilterMap(data.Consultations, func(c *consultation.Consultation, _ int) (ConsultationRow, bool) {
		if !f.Range.Contains(c.CreatedAt) || !f.matchesSpecialty(c.ConsultationSpecialty) {
			return ConsultationRow{}, false
		}
		return ConsultationRow{
			ID:          c.ID.String(),
			PatientName: c.PatientName,
			MRN:         c.MRN,
			Specialty:   c.ConsultationSpecialty,
			Date:        c.CreatedAt,
			Shift:       c.ShiftType,
			Urgency:     c.Urgency,
			Reason:      c.Reason,
			Status:      c.Status,
		}, true
	})

	out.Appointments = lo.FilterMap(data.Appointments, func(a *appointment.Appointment, _ int) (AppointmentRow, bool) {
		if !f.Range.Contains(a.CreatedAt) || !f.matchesSpecialty(a.Specialty) {
			return AppointmentRow{}, false
		}
		return AppointmentRow{
			ID:            a.ID.String(),
			PatientName:   a.PatientName,
			MedicalNumber: a.MedicalNumber,
			Specialty:     a.Specialty,
			Date:          a.CreatedAt,
			Type:          a.AppointmentType,
			Status:        a.Status,
			Notes:         a.Notes,
		}, true
	})

	return out
}

func admissionRow(p *patient.Patient, a *patient.Admission) AdmissionRow {
	row := AdmissionRow{
		PatientID:     p.ID.String(),
		PatientName:   p.Name,
		MRN:           p.MRN,
		Department:    a.Department,
		AdmissionDate: a.AdmissionDate,
		Shift:         a.ShiftType,
		Doctor:        notAssigned,
		Diagnosis:     a.Diagnosis,
		VisitNumber:   a.VisitNumber,
	}
	if a.DoctorName != nil && *a.DoctorName != "" {
		row.Doctor = *a.DoctorName
	}
	if a.SafetyType != nil {
		row.SafetyType = *a.SafetyType
	}
	return row
}

// Counts summarises a Filtered for page headers.
type Counts struct {
	Admissions    int `json:"admissions"`
	Consultations int `json:"consultations"`
	Appointments  int `json:"appointments"`
}

func (f Filtered) Counts() Counts {
	return Counts{
		Admissions:    len(f.Admissions),
		Consultations: len(f.Consultations),
		Appointments:  len(f.Appointments),
	}
}

// Empty reports whether no section selected by the tab has rows.
func (f Filtered) Empty() bool {
	t := f.Filter.Tab
	return !(t.Includes(TabAdmissions) && len(f.Admissions) > 0) &&
		!(t.Includes(TabConsultations) && len(f.Consultations) > 0) &&
		!(t.Includes(TabAppointments) && len(f.Appointments) > 0)
}
