package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
	"github.com/imdcare/ward/internal/report"
)

var generatedAt = time.Date(2024, 1, 31, 14, 5, 0, 0, time.UTC)

func testDataset(admissions int) report.Dataset {
	var data report.Dataset
	for i := 0; i < admissions; i++ {
		p := &patient.Patient{ID: uuid.New(), Name: fmt.Sprintf("Patient %d", i), MRN: fmt.Sprintf("MRN-%03d", i)}
		p.Admissions = []*patient.Admission{{
			ID:            uuid.New(),
			PatientID:     p.ID,
			VisitNumber:   1,
			AdmissionDate: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
			Department:    "Internal Medicine",
			ShiftType:     "night",
			Status:        patient.StatusActive,
			Diagnosis:     "Community acquired pneumonia with a long description that wraps inside its cell",
		}}
		data.Patients = append(data.Patients, p)
	}
	data.Consultations = []*consultation.Consultation{{
		ID: uuid.New(), PatientName: "Réka Nagy", MRN: "MRN-001", ConsultationSpecialty: "Hematology",
		Urgency: "urgent", ShiftType: "morning", Reason: "anaemia", Status: consultation.StatusActive,
		CreatedAt: time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC),
	}}
	data.Appointments = []*appointment.Appointment{{
		ID: uuid.New(), PatientName: "Clinic patient", MedicalNumber: "MN-7", Specialty: "Neurology",
		AppointmentType: "regular", Status: appointment.StatusPending, Notes: "follow-up",
		CreatedAt: time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC),
	}}
	return data
}

func testFiltered(admissions int, tab report.Tab) report.Filtered {
	r, err := report.ParseRange("2024-01-01", "2024-01-31")
	if err != nil {
		panic(err)
	}
	return report.Aggregate(testDataset(admissions), report.Filter{Range: r, Specialty: report.AllSpecialties, Tab: tab})
}
