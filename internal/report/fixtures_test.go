package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
)

func day(s string) time.Time {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func newPatient(name, mrn string, admissions ...*patient.Admission) *patient.Patient {
	p := &patient.Patient{ID: uuid.New(), Name: name, MRN: mrn, Admissions: admissions}
	for _, a := range admissions {
		a.PatientID = p.ID
	}
	return p
}

func admission(visit int, dept, admitted string) *patient.Admission {
	return &patient.Admission{
		ID:            uuid.New(),
		VisitNumber:   visit,
		AdmissionDate: day(admitted),
		Department:    dept,
		ShiftType:     "morning",
		Status:        patient.StatusActive,
		Diagnosis:     "Pneumonia",
	}
}

func discharged(a *patient.Admission, on string) *patient.Admission {
	a.Status = patient.StatusDischarged
	a.DischargeDate = timePtr(day(on))
	return a
}

func withSafety(a *patient.Admission, kind string) *patient.Admission {
	a.SafetyType = strPtr(kind)
	return a
}

func newConsultation(mrn, specialty, created, status string) *consultation.Consultation {
	return &consultation.Consultation{
		ID:                    uuid.New(),
		PatientName:           "Consult " + mrn,
		MRN:                   mrn,
		RequestingDepartment:  "Internal Medicine",
		ConsultationSpecialty: specialty,
		Urgency:               "routine",
		Reason:                "review",
		ShiftType:             "evening",
		Status:                status,
		CreatedAt:             day(created),
	}
}

func newAppointment(specialty, created, status string) *appointment.Appointment {
	return &appointment.Appointment{
		ID:              uuid.New(),
		PatientName:     "Clinic patient",
		MedicalNumber:   "MN-1",
		Specialty:       specialty,
		AppointmentType: "regular",
		Status:          status,
		CreatedAt:       day(created),
	}
}

func mustRange(start, end string) DateRange {
	r, err := ParseRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}
