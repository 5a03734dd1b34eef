package report

import (
	"testing"

	"github.com/imdcare/ward/internal/domain/patient"
)

func TestSafety_Buckets(t *testing.T) {
	patients := []*patient.Patient{
		newPatient("A", "1", withSafety(admission(1, "Safety Admission", "2024-01-02"), "emergency")),
		newPatient("B", "2", withSafety(admission(1, "Safety Admission", "2024-01-03"), "emergency")),
		newPatient("C", "3", withSafety(admission(1, "Safety Admission", "2024-01-03"), "observation")),
		newPatient("D", "4", withSafety(admission(1, "Safety Admission", "2024-01-04"), "short-stay")),
		newPatient("E", "5", withSafety(admission(1, "Safety Admission", "2024-01-04"), "overflow")),
		newPatient("F", "6", admission(1, "Neurology", "2024-01-04")),
		newPatient("G", "7", withSafety(admission(1, "Safety Admission", "2024-02-04"), "emergency")),
	}
	s := Safety(patients, mustRange("2024-01-01", "2024-01-31"))
	if s.Emergency != 2 || s.Observation != 1 || s.ShortStay != 1 {
		t.Errorf("unexpected buckets %+v", s)
	}
	if s.Unclassified != 1 {
		t.Errorf("expected 1 unclassified, got %d", s.Unclassified)
	}
	if s.Total != s.Emergency+s.Observation+s.ShortStay {
		t.Errorf("total %d does not match buckets %+v", s.Total, s)
	}
}

func TestSafety_FirstAdmissionOnly(t *testing.T) {
	// readmission carries a safety type but the first stay did not
	p := newPatient("A", "1",
		withSafety(admission(2, "Safety Admission", "2024-01-10"), "emergency"),
		discharged(admission(1, "Neurology", "2024-01-02"), "2024-01-05"),
	)
	if s := Safety([]*patient.Patient{p}, mustRange("2024-01-01", "2024-01-31")); s.Total != 0 {
		t.Errorf("expected readmission safety type to be ignored, got %+v", s)
	}

	q := newPatient("B", "2",
		withSafety(discharged(admission(1, "Safety Admission", "2023-12-30"), "2024-01-01"), "observation"),
		admission(2, "Neurology", "2024-01-10"),
	)
	if s := Safety([]*patient.Patient{q}, mustRange("2024-01-01", "2024-01-31")); s.Total != 0 {
		t.Errorf("expected first admission outside range to be ignored, got %+v", s)
	}
}

func TestSafety_InvertedRange(t *testing.T) {
	p := newPatient("A", "1", withSafety(admission(1, "Safety Admission", "2024-01-02"), "emergency"))
	if s := Safety([]*patient.Patient{p}, mustRange("2024-02-01", "2024-01-01")); s != (SafetyBreakdown{}) {
		t.Errorf("expected zero breakdown, got %+v", s)
	}
}
