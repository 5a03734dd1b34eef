package report

import (
	"github.com/imdcare/ward/internal/domain/patient"
)

// TrendPoint counts patients, not admissions, for a single day.
type TrendPoint struct {
	Date         string `json:"date"`
	Admissions   int    `json:"admissions"`
	Discharges   int    `json:"discharges"`
	Readmissions int    `json:"readmissions"`
}

type TrendTotals struct {
	Admissions   int `json:"admissions"`
	Discharges   int `json:"discharges"`
	Readmissions int `json:"readmissions"`
}

type Trends struct {
	Points []TrendPoint `json:"points"`
	Totals TrendTotals  `json:"totals"`
}

// AdmissionTrends builds one point per calendar day in the range. Every
// admission is considered regardless of status or department.
func AdmissionTrends(patients []*patient.Patient, r DateRange) Trends {
	days := r.Days()
	out := Trends{Points: make([]TrendPoint, len(days))}
	index := make(map[string]int, len(days))
	for i, d := range days {
		out.Points[i].Date = d
		index[d] = i
	}
	if len(days) == 0 {
		return out
	}

	for _, p := range patients {
		// a patient counts once per day and bucket
		admitted := map[int]bool{}
		discharged := map[int]bool{}
		readmitted := map[int]bool{}
		for _, a := range p.Admissions {
			if i, ok := index[dayKey(a.AdmissionDate)]; ok {
				admitted[i] = true
				if a.IsReadmission() {
					readmitted[i] = true
				}
			}
			if a.DischargeDate != nil {
				if i, ok := index[dayKey(*a.DischargeDate)]; ok {
					discharged[i] = true
				}
			}
		}
		for i := range admitted {
			out.Points[i].Admissions++
		}
		for i := range discharged {
			out.Points[i].Discharges++
		}
		for i := range readmitted {
			out.Points[i].Readmissions++
		}
	}

	for _, pt := range out.Points {
		out.Totals.Admissions += pt.Admissions
		out.Totals.Discharges += pt.Discharges
		out.Totals.Readmissions += pt.Readmissions
	}
	return out
}
