package report

import (
	"testing"
	"time"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
)

func TestAggregate_ActiveAdmissionInRange(t *testing.T) {
	p1 := newPatient("P1", "MRN-1", admission(1, "Internal Medicine", "2024-01-05"))
	data := Dataset{Patients: []*patient.Patient{p1}}
	r := mustRange("2024-01-01", "2024-01-31")

	res := Aggregate(data, Filter{Range: r, Specialty: "Internal Medicine", Tab: TabAll})
	if len(res.Admissions) != 1 || res.Admissions[0].MRN != "MRN-1" {
		t.Fatalf("expected P1 in admissions, got %+v", res.Admissions)
	}
	if res.Admissions[0].Doctor != "Not assigned" {
		t.Errorf("expected fallback doctor, got %q", res.Admissions[0].Doctor)
	}

	res = Aggregate(data, Filter{Range: r, Specialty: "Neurology", Tab: TabAll})
	if len(res.Admissions) != 0 {
		t.Errorf("expected no Neurology admissions, got %d", len(res.Admissions))
	}
}

func TestAggregate_DischargedPatientExcluded(t *testing.T) {
	p1 := newPatient("P1", "MRN-1", discharged(admission(1, "Internal Medicine", "2024-01-05"), "2024-01-10"))
	res := Aggregate(Dataset{Patients: []*patient.Patient{p1}}, Filter{
		Range:     mustRange("2024-01-01", "2024-01-31"),
		Specialty: AllSpecialties,
		Tab:       TabAll,
	})
	if len(res.Admissions) != 0 {
		t.Errorf("expected discharged patient to be excluded, got %+v", res.Admissions)
	}
}

func TestAggregate_NoAdmissions(t *testing.T) {
	p := newPatient("Nobody", "MRN-0")
	res := Aggregate(Dataset{Patients: []*patient.Patient{p}}, Filter{Range: mustRange("2024-01-01", "2024-12-31"), Tab: TabAll})
	if len(res.Admissions) != 0 {
		t.Errorf("expected patient without admissions to be excluded")
	}
}

func TestAggregate_InclusiveBounds(t *testing.T) {
	early := newPatient("A", "MRN-A", admission(1, "Neurology", "2024-02-01"))
	late := newPatient("B", "MRN-B", admission(1, "Neurology", "2024-02-29"))
	late.Admissions[0].AdmissionDate = late.Admissions[0].AdmissionDate.Add(14 * time.Hour)
	outside := newPatient("C", "MRN-C", admission(1, "Neurology", "2024-03-01"))

	res := Aggregate(Dataset{Patients: []*patient.Patient{early, late, outside}}, Filter{
		Range: mustRange("2024-02-01", "2024-02-29"),
		Tab:   TabAll,
	})
	if len(res.Admissions) != 2 {
		t.Errorf("expected 2 admissions on the bounds, got %d", len(res.Admissions))
	}
}

func TestAggregate_StartAfterEnd(t *testing.T) {
	data := Dataset{
		Patients:      []*patient.Patient{newPatient("A", "MRN-A", admission(1, "Neurology", "2024-02-01"))},
		Consultations: []*consultation.Consultation{newConsultation("MRN-A", "Neurology", "2024-02-01", "active")},
		Appointments:  []*appointment.Appointment{newAppointment("Neurology", "2024-02-01", "pending")},
	}
	res := Aggregate(data, Filter{Range: mustRange("2024-03-01", "2024-01-01"), Tab: TabAll})
	if res.Admissions == nil || res.Consultations == nil || res.Appointments == nil {
		t.Fatal("expected empty, non-nil lists")
	}
	if c := res.Counts(); c.Admissions+c.Consultations+c.Appointments != 0 {
		t.Errorf("expected empty result, got %+v", c)
	}
}

func TestAggregate_ConsultationsAndAppointments(t *testing.T) {
	data := Dataset{
		Consultations: []*consultation.Consultation{
			newConsultation("MRN-1", "Hematology", "2024-05-02", "active"),
			newConsultation("MRN-2", "Hematology", "2024-05-02", "closed"),
			newConsultation("MRN-3", "Neurology", "2024-05-02", "active"),
			newConsultation("MRN-4", "Hematology", "2024-06-02", "active"),
		},
		Appointments: []*appointment.Appointment{
			newAppointment("Hematology", "2024-05-03", "pending"),
			newAppointment("Pulmonology", "2024-05-03", "completed"),
		},
	}
	res := Aggregate(data, Filter{Range: mustRange("2024-05-01", "2024-05-31"), Specialty: "Hematology", Tab: TabAll})
	if len(res.Consultations) != 2 {
		t.Errorf("expected 2 consultations regardless of status, got %d", len(res.Consultations))
	}
	if len(res.Appointments) != 1 || res.Appointments[0].Specialty != "Hematology" {
		t.Errorf("unexpected appointments %+v", res.Appointments)
	}
}

func TestFiltered_EmptyHonoursTab(t *testing.T) {
	res := Aggregate(Dataset{
		Appointments: []*appointment.Appointment{newAppointment("Hematology", "2024-05-03", "pending")},
	}, Filter{Range: mustRange("2024-05-01", "2024-05-31"), Tab: TabAdmissions})
	if !res.Empty() {
		t.Error("expected admissions tab to be empty")
	}
	res.Filter.Tab = TabAll
	if res.Empty() {
		t.Error("expected all tab to be non-empty")
	}
}
