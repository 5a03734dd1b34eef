package report

import "github.com/imdcare/ward/internal/domain/patient"

const (
	SafetyEmergency   = "emergency"
	SafetyObservation = "observation"
	SafetyShortStay   = "short-stay"
)

type SafetyBreakdown struct {
	Total        int `json:"total"`
	Emergency    int `json:"emergency"`
	Observation  int `json:"observation"`
	ShortStay    int `json:"short_stay"`
	Unclassified int `json:"unclassified"`
}

// Safety buckets patients by the safety type of their first admission.
// Later admissions are ignored even when they carry a safety type.
func Safety(patients []*patient.Patient, r DateRange) SafetyBreakdown {
	var out SafetyBreakdown
	if r.Empty() {
		return out
	}
	for _, p := range patients {
		first := p.FirstAdmission()
		if first == nil || first.SafetyType == nil || *first.SafetyType == "" {
			continue
		}
		if !r.Contains(first.AdmissionDate) {
			continue
		}
		switch *first.SafetyType {
		case SafetyEmergency:
			out.Emergency++
		case SafetyObservation:
			out.Observation++
		case SafetyShortStay:
			out.ShortStay++
		default:
			out.Unclassified++
		}
	}
	out.Total = out.Emergency + out.Observation + out.ShortStay
	return out
}
