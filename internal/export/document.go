// Package export renders filtered report data as downloadable documents and
// optionally archives them.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/imdcare/ward/internal/report"
)

const (
	filePrefix      = "imd-care-report-"
	fileStampLayout = "2006-01-02-1504"
	longDateLayout  = "January 2, 2006"
	shortDateLayout = "Jan 2, 2006"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// FileName is the download name for a document generated at t.
func FileName(f Format, t time.Time) string {
	return filePrefix + t.Format(fileStampLayout) + "." + string(f)
}

// Table is one section of a document. A zero width means the column takes
// the remaining page width.
type Table struct {
	Title  string
	Header []string
	Widths []float64
	Rows   [][]string
}

type Document struct {
	Title       string
	GeneratedAt time.Time
	Range       report.DateRange
	Tab         report.Tab
	Counts      report.Counts
	Tables      []Table
}

func (d Document) GeneratedLine() string {
	return "Generated on: " + d.GeneratedAt.Format(longDateLayout)
}

func (d Document) PeriodLine() string {
	return fmt.Sprintf("Period: %s - %s",
		d.Range.Start.Format(shortDateLayout), d.Range.End.Format(shortDateLayout))
}

// NewDocument lays out the sections selected by the filter's tab, skipping
// empty ones.
func NewDocument(title string, res report.Filtered, generatedAt time.Time) Document {
	doc := Document{
		Title:       title,
		GeneratedAt: generatedAt,
		Range:       res.Filter.Range,
		Tab:         res.Filter.Tab,
		Counts:      res.Counts(),
	}
	tab := res.Filter.Tab

	if tab.Includes(report.TabAdmissions) && len(res.Admissions) > 0 {
		t := Table{
			Title:  "Active Admissions",
			Header: []string{"Patient Name", "MRN", "Department", "Admission Date", "Shift", "Doctor", "Diagnosis"},
			Widths: []float64{30, 20, 30, 25, 20, 30, 0},
		}
		for _, r := range res.Admissions {
			t.Rows = append(t.Rows, []string{
				r.PatientName, r.MRN, r.Department, r.AdmissionDate.Format(shortDateLayout),
				strings.ToUpper(r.Shift), r.Doctor, r.Diagnosis,
			})
		}
		doc.Tables = append(doc.Tables, t)
	}

	if tab.Includes(report.TabConsultations) && len(res.Consultations) > 0 {
		t := Table{
			Title:  "Medical Consultations",
			Header: []string{"Patient Name", "MRN", "Specialty", "Date", "Shift", "Urgency", "Reason"},
			Widths: []float64{30, 20, 30, 25, 20, 20, 0},
		}
		for _, r := range res.Consultations {
			t.Rows = append(t.Rows, []string{
				r.PatientName, r.MRN, r.Specialty, r.Date.Format(shortDateLayout),
				strings.ToUpper(r.Shift), strings.ToUpper(r.Urgency), r.Reason,
			})
		}
		doc.Tables = append(doc.Tables, t)
	}

	if tab.Includes(report.TabAppointments) && len(res.Appointments) > 0 {
		t := Table{
			Title:  "Clinic Appointments",
			Header: []string{"Patient Name", "Medical No.", "Specialty", "Date", "Type", "Status", "Notes"},
			Widths: []float64{30, 25, 30, 25, 20, 20, 0},
		}
		for _, r := range res.Appointments {
			t.Rows = append(t.Rows, []string{
				r.PatientName, r.MedicalNumber, r.Specialty, r.Date.Format(shortDateLayout),
				strings.ToUpper(r.Type), r.Status, r.Notes,
			})
		}
		doc.Tables = append(doc.Tables, t)
	}

	return doc
}
