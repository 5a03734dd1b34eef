package export

import (
	"io"

	"github.com/tealeg/xlsx/v3"

	"github.com/imdcare/ward/internal/report"
)

const sheetSummary = "Summary"

// RenderXLSX writes doc as a workbook with a summary sheet followed by one
// sheet per table.
func RenderXLSX(w io.Writer, doc Document) error {
	book, err := buildWorkbook(doc)
	if err != nil {
		return err
	}
	return book.Write(w)
}

func buildWorkbook(doc Document) (*xlsx.File, error) {
	book := xlsx.NewFile()

	components := []func(book *xlsx.File) error{
		doc.addSummarySheet,
		doc.addTableSheets,
	}
	for _, fn := range components {
		if err := fn(book); err != nil {
			return nil, err
		}
	}

	for _, sh := range book.Sheets {
		sh.SetColWidth(1, 1, 30)
		for i := 2; i <= sh.MaxCol; i++ {
			_ = sh.SetColAutoWidth(i, xlsx.DefaultAutoWidth)
		}
	}
	return book, nil
}

func (d Document) addSummarySheet(book *xlsx.File) error {
	sh, err := book.AddSheet(sheetSummary)
	if err != nil {
		return err
	}
	sh.AddRow().AddCell().SetValue(d.Title)
	sh.AddRow().AddCell().SetValue(d.GeneratedLine())
	sh.AddRow().AddCell().SetValue(d.PeriodLine())
	sh.AddRow()

	row := sh.AddRow()
	row.AddCell().SetValue("Section")
	row.AddCell().SetValue("Rows")

	sections := []struct {
		name  string
		count int
		ok    bool
	}{
		{"Active Admissions", d.Counts.Admissions, d.Tab.Includes(report.TabAdmissions)},
		{"Medical Consultations", d.Counts.Consultations, d.Tab.Includes(report.TabConsultations)},
		{"Clinic Appointments", d.Counts.Appointments, d.Tab.Includes(report.TabAppointments)},
	}
	for _, s := range sections {
		if !s.ok {
			continue
		}
		row = sh.AddRow()
		row.AddCell().SetValue(s.name)
		row.AddCell().SetInt(s.count)
	}
	return nil
}

func (d Document) addTableSheets(book *xlsx.File) error {
	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	for _, t := range d.Tables {
		sh, err := book.AddSheet(t.Title)
		if err != nil {
			return err
		}
		row := sh.AddRow()
		for _, h := range t.Header {
			cell := row.AddCell()
			cell.SetValue(h)
			cell.SetStyle(bold)
		}
		for _, r := range t.Rows {
			row = sh.AddRow()
			for _, v := range r {
				row.AddCell().SetValue(v)
			}
		}
	}
	return nil
}
